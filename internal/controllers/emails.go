package controllers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/language"

	"github.com/planopia/leave_service/internal/entity"
	"github.com/planopia/leave_service/internal/i18n"
	"github.com/planopia/leave_service/internal/notify"
)

// mailer renders notification e-mails in the language of the current request.
type mailer struct {
	deps *Dependens
	lang language.Tag
}

func newMailer(ctx context.Context, deps *Dependens) mailer {
	return mailer{deps: deps, lang: i18n.LanguageFrom(ctx)}
}

func (m mailer) t(key string, params map[string]any) string {
	return m.deps.Translator.T(m.lang, key, params)
}

func (m mailer) link(path string) string {
	return strings.TrimRight(m.deps.Config.Server.AppURL, "/") + path
}

func (m mailer) welcome(user *entity.User, token string) notify.EmailMessage {
	link := m.link("/set-password/" + token)

	body := fmt.Sprintf("<p>%s</p><p>%s</p><p>%s</p>",
		m.t("email.welcome.login", map[string]any{"username": html.EscapeString(user.Username)}),
		m.t("email.welcome.password", map[string]any{"link": link}),
		m.t("email.welcome.linkActive", nil),
	)

	return notify.EmailMessage{
		Kind:    notify.KindWelcome,
		To:      user.Username,
		Subject: m.t("email.welcome.subject", nil),
		HTML:    body,
		Link:    link,
	}
}

func (m mailer) passwordReset(user *entity.User, token string) notify.EmailMessage {
	link := m.link("/new-password/" + token)

	return notify.EmailMessage{
		Kind:    notify.KindPasswordReset,
		To:      user.Username,
		Subject: m.t("email.resetpass.subject", nil),
		HTML: fmt.Sprintf("<p>%s</p><p>%s</p>",
			m.t("email.resetpass.body", map[string]any{"link": link}),
			m.t("email.resetpass.linkActive", nil)),
		Link: link,
	}
}

// leaveSubmitted is sent to every holder of the resolved supervisor role.
func (m mailer) leaveSubmitted(owner *entity.User, lr *entity.LeaveRequest, to []entity.UserSummary) []notify.EmailMessage {
	subject := m.t("email.leaveform.title", nil)

	var b strings.Builder
	fmt.Fprintf(&b, "<h3>%s</h3>", subject)
	m.row(&b, "email.leaveform.employee", owner.FullName())
	m.row(&b, "email.leaveform.type", m.t("leave."+string(lr.Type), nil))
	m.row(&b, "email.leaveform.dates", lr.StartDate.Format(entity.DateLayout)+" - "+lr.EndDate.Format(entity.DateLayout))
	m.row(&b, "email.leaveform.days", fmt.Sprint(lr.DaysRequested))
	fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`, m.link("/leave-requests/"+owner.ID.String()), m.t("email.leaveform.goToRequest", nil))

	return m.fanOut(notify.KindLeaveSubmitted, subject, b.String(), to)
}

func (m mailer) decisionBody(owner *entity.User, lr *entity.LeaveRequest, reviewer string) string {
	var b strings.Builder
	m.row(&b, "email.leaveRequest.employee", owner.FullName())
	m.row(&b, "email.leaveRequest.type", m.t("leave."+string(lr.Type), nil))
	m.row(&b, "email.leaveRequest.dates", lr.StartDate.Format(entity.DateLayout)+" - "+lr.EndDate.Format(entity.DateLayout))
	m.row(&b, "email.leaveRequest.days", fmt.Sprint(lr.DaysRequested))
	if reviewer != "" {
		m.row(&b, "email.leaveRequest.updatedBy", reviewer)
	}
	fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`, m.link("/leave-requests/"+owner.ID.String()), m.t("email.leaveRequest.goToRequest", nil))

	return b.String()
}

func (m mailer) statusChanged(owner *entity.User, lr *entity.LeaveRequest, reviewer string) notify.EmailMessage {
	return notify.EmailMessage{
		Kind: notify.KindStatusChanged,
		To:   owner.Username,
		Subject: fmt.Sprintf("%s %s %s",
			m.t("email.leaveRequest.titlemail", nil),
			m.t("leave."+string(lr.Type), nil),
			m.t("status."+string(lr.Status), nil)),
		HTML: m.decisionBody(owner, lr, reviewer),
	}
}

func (m mailer) leaveAccepted(owner *entity.User, lr *entity.LeaveRequest, reviewer string, to []entity.UserSummary) []notify.EmailMessage {
	return m.fanOut(notify.KindLeaveAccepted, m.t("email.leaveRequest.titlemailsecond", nil), m.decisionBody(owner, lr, reviewer), to)
}

func (m mailer) row(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "<p><b>%s:</b> %s</p>", m.t(key, nil), html.EscapeString(value))
}

func (m mailer) fanOut(kind notify.Kind, subject, body string, to []entity.UserSummary) []notify.EmailMessage {
	msgs := make([]notify.EmailMessage, 0, len(to))
	for _, u := range to {
		msgs = append(msgs, notify.EmailMessage{Kind: kind, To: u.Username, Subject: subject, HTML: body})
	}

	return msgs
}
