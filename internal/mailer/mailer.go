// Package mailer sends deadline reminder digests over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"slices"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/harlequingg/taskplanner/internal/task"
)

//go:embed templates
var templateFS embed.FS

type Mailer struct {
	dialer *mail.Dialer
	sender string
}

func New(host string, port int, username, password, sender string) *Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second
	return &Mailer{
		dialer: dialer,
		sender: sender,
	}
}

// Digest is the data rendered into the reminder template.
type Digest struct {
	Username string
	Until    string
	Tasks    []task.Task
}

// DueDigest selects the pending tasks with a deadline on or before now+window,
// overdue ones included, earliest deadline first.
func DueDigest(username string, tasks []task.Task, now time.Time, window time.Duration) Digest {
	until := now.Add(window)
	limit := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.Local)
	d := Digest{
		Username: username,
		Until:    limit.Format(task.DateLayout),
		Tasks:    []task.Task{},
	}
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		deadline, ok := t.DeadlineTime()
		if !ok || deadline.After(limit) {
			continue
		}
		d.Tasks = append(d.Tasks, t)
	}
	slices.SortStableFunc(d.Tasks, func(a, b task.Task) int {
		da, _ := a.DeadlineTime()
		db, _ := b.DeadlineTime()
		return da.Compare(db)
	})
	return d
}

type Message struct {
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Render executes the subject, plainBody and htmlBody templates for d.
func Render(d Digest) (Message, error) {
	tmpl, err := template.New("reminder").ParseFS(templateFS, "templates/reminder.tmpl")
	if err != nil {
		return Message{}, err
	}
	var subject bytes.Buffer
	err = tmpl.ExecuteTemplate(&subject, "subject", d)
	if err != nil {
		return Message{}, err
	}
	var plainBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&plainBody, "plainBody", d)
	if err != nil {
		return Message{}, err
	}
	var htmlBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&htmlBody, "htmlBody", d)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject:   subject.String(),
		PlainBody: plainBody.String(),
		HTMLBody:  htmlBody.String(),
	}, nil
}

var ErrNothingDue = errors.New("no pending tasks are due")

// SendReminder renders d and sends it to the given address, trying up to
// three times.
func (m *Mailer) SendReminder(to string, d Digest) error {
	if len(d.Tasks) == 0 {
		return ErrNothingDue
	}
	rendered, err := Render(d)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", rendered.Subject)
	msg.SetBody("text/plain", rendered.PlainBody)
	msg.AddAlternative("text/html", rendered.HTMLBody)

	for i := 0; i < 3; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			break
		}
	}
	return err
}
