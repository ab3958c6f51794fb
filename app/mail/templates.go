package mail

import (
	"bytes"
	"html/template"
	"strconv"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(`
<p>Hi {{.FirstName}},</p>
<p>Your OTP for verifying your email is:</p>
<h2>{{.Code}}</h2>
<p>This OTP is valid for the next {{.Validity}}.</p>
<p>If you did not request this, please ignore this email.</p>
<p>ON-LEARN Team</p>
`))

var resetTemplate = template.Must(template.New("reset").Parse(`
<p>Hi {{.FirstName}},</p>
<p>Hello {{.FullName}},</p>
<p>Please <a href="{{.Link}}">click here</a> to reset your password. The link expires in {{.Validity}}.</p>
<p>If you did not request this, please ignore this email.</p>
<p>ON-LEARN Team</p>
`))

func OTPMessage(to, firstName, code string, ttl time.Duration) (Message, error) {
	var body bytes.Buffer
	err := otpTemplate.Execute(&body, map[string]string{
		"FirstName": firstName,
		"Code":      code,
		"Validity":  humanizeDuration(ttl),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: "OTP Verification", HTML: body.String()}, nil
}

func PasswordResetMessage(to, firstName, fullName, link string, ttl time.Duration) (Message, error) {
	var body bytes.Buffer
	err := resetTemplate.Execute(&body, map[string]string{
		"FirstName": firstName,
		"FullName":  fullName,
		"Link":      link,
		"Validity":  humanizeDuration(ttl),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: "Password Reset Link", HTML: body.String()}, nil
}

func humanizeDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		if minutes := int(d / time.Minute); minutes != 1 {
			return strconv.Itoa(minutes) + " minutes"
		}
		return "1 minute"
	}
	if seconds := int(d / time.Second); seconds != 1 {
		return strconv.Itoa(seconds) + " seconds"
	}
	return "1 second"
}
