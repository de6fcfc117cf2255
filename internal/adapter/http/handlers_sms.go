package adapthttp

import (
	"log"
	"net/http"

	"textweight/internal/adapter/twilio"
)

// handleSMSIncoming is the Twilio webhook: a form-encoded message in, a
// TwiML reply out. The reply body comes straight from the message service;
// every failure path inside it already degrades to a user-facing string.
func (s *Server) handleSMSIncoming(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	if s.validateSignatures {
		fullURL := requestURL(r)
		if !s.sms.ValidateSignature(fullURL, r.PostForm, r.Header.Get("X-Twilio-Signature")) {
			http.Error(w, "Invalid signature", http.StatusForbidden)
			return
		}
	}

	body := r.PostFormValue("Body")
	from := r.PostFormValue("From")
	log.Printf("sms: received from %s: %s", from, body)

	reply := s.message.HandleMessage(r.Context(), body)

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, _ = w.Write([]byte(twilio.TwiML(reply)))
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.RequestURI
}
