package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"

	"github.com/kaelo-io/referral_backend/models"
)

// EmailNotifier delivers referral state-change mails over SMTP. Delivery
// plays no role in invariant enforcement; callers treat failures as
// non-fatal.
type EmailNotifier struct {
	host       string
	port       int
	user       string
	pass       string
	from       string
	adminEmail string
}

// NewEmailNotifier creates a notifier from SMTP environment configuration
func NewEmailNotifier() *EmailNotifier {
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	user := os.Getenv("SMTP_USER")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}

	return &EmailNotifier{
		host:       os.Getenv("SMTP_HOST"),
		port:       smtpPort,
		user:       user,
		pass:       os.Getenv("SMTP_PASS"),
		from:       from,
		adminEmail: os.Getenv("ADMIN_EMAIL"),
	}
}

// UserBlocked informs the user their referral participation was suspended.
func (n *EmailNotifier) UserBlocked(user *models.User, block *models.Block) error {
	subject := "Referral participation suspended"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour participation in the referral program has been suspended.\nReason: %s\n\nIf you believe this is a mistake, please contact support.\n\nBest regards,\nThe Referral Team",
		userSalutation(user), block.Reason)
	return n.send(user.Email, subject, body)
}

// UserUnblocked informs the user their referral participation was restored.
func (n *EmailNotifier) UserUnblocked(user *models.User, block *models.Block) error {
	subject := "Referral participation restored"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour participation in the referral program has been restored. You can create and share referral links again.\n\nBest regards,\nThe Referral Team",
		userSalutation(user))
	return n.send(user.Email, subject, body)
}

// ProgramLimitReached informs the administrators that a program's global
// completion cap has been exhausted.
func (n *EmailNotifier) ProgramLimitReached(program *models.Program) error {
	if n.adminEmail == "" {
		log.Printf("ADMIN_EMAIL not configured, skipping limit-reached mail for program '%s'", program.Name)
		return nil
	}
	subject := fmt.Sprintf("Referral program '%s' reached its completion limit", program.Name)
	body := fmt.Sprintf(
		"Referral program '%s' has reached its completion limit (%d completions).\nNew claims are blocked; pending claims will expire.\n",
		program.Name, program.CompletionTotal)
	return n.send(n.adminEmail, subject, body)
}

func (n *EmailNotifier) send(to, subject, body string) error {
	if n.host == "" || to == "" {
		log.Printf("SMTP not configured or recipient missing, skipping mail '%s'", subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.host, n.port, n.user, n.pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func userSalutation(user *models.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Username
}
