package smtp

import "fmt"

func verificationTemplate(clientURL, token string) string {
	verificationURL := fmt.Sprintf("%s/verify-email?token=%s", clientURL, token)
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; color: #333;">
	  <h1>Verify Your Email Address</h1>
	  <p>Thank you for registering with Mainford. Please verify your email address by clicking the link below:</p>
	  <a href="%s" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none;">Verify Email</a>
	  <p>If you did not create this account, please ignore this email.</p>
	  <br />
	  <p>Best Regards,</p>
	  <p>Mainford Team</p>
	</div>`, verificationURL)
}

func approvalTemplate(name string) string {
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; color: #333;">
	  <h1>Welcome, %s!</h1>
	  <p>Your account has been approved. You can now log in to the platform.</p>
	  <br />
	  <p>Best Regards,</p>
	  <p>Mainford Team</p>
	</div>`, name)
}
