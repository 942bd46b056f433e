package main

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonas-koeritz/mailview"
	"github.com/tjarratt/babble"
)

//go:embed static
var staticFS embed.FS

//go:embed templates
var templatesFS embed.FS

type webSettings struct {
	Domain         string
	RetentionHours int
	RandomAlias    func() string
}

// emailResponse is the JSON shape of a stored message: its header record
// plus the id used in /mail and /mail/view links.
type emailResponse struct {
	ID uint64 `json:"id"`
	mailview.EmailRecord
}

func newWebHandler(backend mailview.Backend, settings webSettings) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", indexView(settings))
	mux.HandleFunc("/mailbox", mailboxView(backend, settings))
	mux.HandleFunc("/mail", emlDownload(backend))
	mux.HandleFunc("/mail/view", mailView(backend))
	mux.HandleFunc("/api/emails", apiEmails(backend))
	mux.HandleFunc("/api/email", apiEmail(backend))
	mux.Handle("/static/", http.FileServer(http.FS(staticFS)))
	return mux
}

func indexView(settings webSettings) func(http.ResponseWriter, *http.Request) {
	indexTemplate := template.Must(template.ParseFS(templatesFS, "templates/index.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		err := indexTemplate.Execute(w, struct {
			Domain      string
			RandomAlias string
		}{
			Domain:      settings.Domain,
			RandomAlias: settings.RandomAlias(),
		})
		if err != nil {
			log.WithError(err).Error("rendering index failed")
		}
	}
}

func aliasPlaceholderGenerator(random bool) func() string {
	if random {
		babbler := babble.NewBabbler()
		babbler.Count = 1
		aliasChars := regexp.MustCompile("[^a-zA-Z0-9]")
		return func() string {
			return strings.ToLower(aliasChars.ReplaceAllString(babbler.Babble(), ""))
		}
	} else {
		return func() string {
			return "alias"
		}
	}
}

func emailFromQuery(backend mailview.Backend, w http.ResponseWriter, r *http.Request) *mailview.EMail {
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}

	e := backend.GetEmailById(id)
	if e == nil {
		w.WriteHeader(http.StatusNotFound)
		return nil
	}
	return e
}

func emlDownload(backend mailview.Backend) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		e := emailFromQuery(backend, w, r)
		if e == nil {
			return
		}

		w.Header().Set("Content-Type", "message/rfc822")
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(e.From+".eml"))
		w.Write(e.Data)
	}
}

func mailView(backend mailview.Backend) func(http.ResponseWriter, *http.Request) {
	mailTemplate := template.Must(template.ParseFS(templatesFS, "templates/mail.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		e := emailFromQuery(backend, w, r)
		if e == nil {
			return
		}

		header, err := mailview.RenderHeaderHTML(e.Record())
		if err != nil {
			log.WithError(err).WithField("id", e.ID).Error("rendering email header failed")
			http.Error(w, "email header could not be rendered", http.StatusInternalServerError)
			return
		}

		err = mailTemplate.Execute(w, struct {
			ID     uint64
			Header template.HTML
			Body   string
		}{
			ID:     e.ID,
			Header: header,
			Body:   string(e.Body),
		})
		if err != nil {
			log.WithError(err).Error("rendering mail view failed")
		}
	}
}

func mailboxView(backend mailview.Backend, settings webSettings) func(w http.ResponseWriter, r *http.Request) {
	mailboxTemplate := template.Must(template.New("mailbox.html").Funcs(template.FuncMap{
		"DateFormat": func(e *mailview.EMail) (string, error) {
			return mailview.FormatReceivedOn(e.Record().ReceivedOn)
		},
		"Join": func(elements []string) string {
			return strings.Join(elements, ", ")
		},
	}).ParseFS(templatesFS, "templates/mailbox.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		alias := r.URL.Query().Get("alias")
		if len(alias) == 0 {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		err := mailboxTemplate.Execute(w, struct {
			Alias          string
			RandomAlias    string
			Domain         string
			RetentionHours int
			EMails         []*mailview.EMail
		}{
			Alias:          alias,
			RandomAlias:    settings.RandomAlias(),
			Domain:         settings.Domain,
			RetentionHours: settings.RetentionHours,
			EMails:         backend.GetEmailsByAlias(alias),
		})
		if err != nil {
			log.WithError(err).WithField("alias", alias).Error("rendering mailbox failed")
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("encoding JSON response failed")
	}
}

func apiEmails(backend mailview.Backend) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		alias := r.URL.Query().Get("alias")
		if len(alias) == 0 {
			http.Error(w, "missing alias", http.StatusBadRequest)
			return
		}

		emails := backend.GetEmailsByAlias(alias)
		response := make([]emailResponse, 0, len(emails))
		for _, e := range emails {
			response = append(response, emailResponse{ID: e.ID, EmailRecord: e.Record()})
		}
		writeJSON(w, response)
	}
}

func apiEmail(backend mailview.Backend) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		e := emailFromQuery(backend, w, r)
		if e == nil {
			return
		}
		writeJSON(w, emailResponse{ID: e.ID, EmailRecord: e.Record()})
	}
}
