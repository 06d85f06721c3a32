package email

import (
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSender) Send(m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = 202
	}
	return &rest.Response{StatusCode: status}, nil
}

func newTestService(sender Sender) *Service {
	return NewServiceWithSender(sender, "Kt'i", "support@example.com", "rapport@example.com")
}

func TestSendOrderConfirmation(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(sender)

	err := svc.SendOrderConfirmation("client@example.com", "b7c9e2a4-1111-2222-3333-444455556666", 154.00, []OrderLine{
		{Name: "Sac bandoulière", Quantity: 1, Price: 149.00},
		{Name: "Frais de livraison", Quantity: 1, Price: 5.00},
	})

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Subject, "b7c9e2a4")
}

func TestSendContactMessage_GoesToAdmin(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(sender)

	err := svc.SendContactMessage("Camille", "camille@example.com", "Bonjour !")

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Len(t, sender.sent[0].Personalizations, 1)
	require.Len(t, sender.sent[0].Personalizations[0].To, 1)
	assert.Equal(t, "rapport@example.com", sender.sent[0].Personalizations[0].To[0].Address)
}

func TestSend_SenderError(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	svc := newTestService(sender)

	err := svc.SendLoginNotice("client@example.com", "203.0.113.7")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
}

func TestSend_RejectedStatus(t *testing.T) {
	sender := &fakeSender{status: 401}
	svc := newTestService(sender)

	err := svc.SendLoginNotice("client@example.com", "203.0.113.7")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSend_NotConfigured(t *testing.T) {
	svc := NewService("", "Kt'i", "support@example.com", "rapport@example.com")

	err := svc.SendLoginNotice("client@example.com", "203.0.113.7")

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildOrderConfirmationBody_EscapesContent(t *testing.T) {
	body := BuildOrderConfirmationBody("order-1", 10.00, []OrderLine{
		{Name: "<script>alert(1)</script>", Quantity: 1, Price: 10.00},
	})

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestBuildContactBody_EscapesContent(t *testing.T) {
	body := BuildContactBody("<b>x</b>", "a@example.com", "salut <i>toi</i>")

	assert.NotContains(t, body, "<b>")
	assert.NotContains(t, body, "<i>")
}
