package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender delivers an OTP code to a phone number
type SMSSender interface {
	SendOTP(phone, code string) error
}

// TwilioService sends SMS via Twilio
type TwilioService struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client: client,
		from:   from,
	}, nil
}

// SendOTP sends the verification code as a plain SMS
func (t *TwilioService) SendOTP(phone, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo("+91" + phone)
	params.SetBody(fmt.Sprintf("Your CarQR verification code is %s. It expires in 5 minutes.", code))

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send OTP SMS: %v", err)
		return err
	}

	log.Printf("✅ OTP SMS sent! SID: %s", *resp.Sid)
	return nil
}

// LogSMSSender logs codes instead of sending them. Used when Twilio is
// not configured; never enable outside development.
type LogSMSSender struct{}

func (LogSMSSender) SendOTP(phone, code string) error {
	log.Printf("[DEV] OTP for %s: %s", phone, code)
	return nil
}
