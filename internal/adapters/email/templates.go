package email

import (
	"fmt"
	"html"
	"net/url"
)

// message is a rendered email
type message struct {
	Subject string
	HTML    string
	Text    string
}

const signature = "Best regards,\nDonorHub"

func passwordResetMessage(frontendURL, token string) message {
	link := frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	return message{
		Subject: "Password Reset Request",
		HTML: fmt.Sprintf(`<html><body>
<h2>Password Reset Request</h2>
<p>You requested a password reset for your account.</p>
<p><a href="%s">Reset Password</a></p>
<p>This link will expire in 1 hour.</p>
<p>If you didn't request this reset, please ignore this email.</p>
<p>Best regards,<br>DonorHub</p>
</body></html>`, html.EscapeString(link)),
		Text: fmt.Sprintf("Password Reset Request\n\nReset your password here: %s\n\nThis link will expire in 1 hour.\n\nIf you didn't request this reset, please ignore this email.\n\n%s\n", link, signature),
	}
}

func verificationMessage(frontendURL, token string) message {
	link := frontendURL + "/verify-email?token=" + url.QueryEscape(token)
	return message{
		Subject: "Verify Your Email Address",
		HTML: fmt.Sprintf(`<html><body>
<h2>Welcome to DonorHub</h2>
<p>Please verify your email address to complete your registration.</p>
<p><a href="%s">Verify Email</a></p>
<p>This link will expire in 24 hours.</p>
<p>Best regards,<br>DonorHub</p>
</body></html>`, html.EscapeString(link)),
		Text: fmt.Sprintf("Welcome to DonorHub\n\nVerify your email here: %s\n\nThis link will expire in 24 hours.\n\n%s\n", link, signature),
	}
}

func welcomeMessage(email string) message {
	return message{
		Subject: "Welcome to DonorHub",
		HTML: fmt.Sprintf(`<html><body>
<h2>Welcome, %s!</h2>
<p>Your account has been successfully verified.</p>
<p>You can now log in and start using DonorHub.</p>
<p>Best regards,<br>DonorHub Team</p>
</body></html>`, html.EscapeString(email)),
		Text: fmt.Sprintf("Welcome, %s!\n\nYour account has been successfully verified.\n\nYou can now log in and start using DonorHub.\n\n%s\n", email, signature),
	}
}
