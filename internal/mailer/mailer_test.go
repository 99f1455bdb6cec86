package mailer

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
)

func TestTemplatesRender(t *testing.T) {
	data := struct{ Email string }{Email: "kamil@example.com"}

	for _, file := range []string{"user_welcome.tmpl", "password_changed.tmpl"} {
		t.Run(file, func(t *testing.T) {
			tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+file)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}

			for _, name := range []string{"subject", "plainBody", "htmlBody"} {
				buf := new(bytes.Buffer)
				if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
					t.Fatalf("execute %s: %v", name, err)
				}
				if strings.TrimSpace(buf.String()) == "" {
					t.Errorf("%s rendered empty", name)
				}
			}
		})
	}
}

func TestBodyTemplatesMentionAccount(t *testing.T) {
	data := struct{ Email string }{Email: "kamil@example.com"}

	for _, file := range []string{"user_welcome.tmpl", "password_changed.tmpl"} {
		tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+file)
		if err != nil {
			t.Fatalf("parse %s: %v", file, err)
		}

		buf := new(bytes.Buffer)
		if err := tmpl.ExecuteTemplate(buf, "plainBody", data); err != nil {
			t.Fatalf("execute: %v", err)
		}
		if !strings.Contains(buf.String(), data.Email) {
			t.Errorf("%s plainBody does not mention the account email", file)
		}
	}
}
