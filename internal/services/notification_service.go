package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/config"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// EmailSender is satisfied by *sendgrid.Client.
type EmailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// SMSSender is satisfied by the Api service of *twilio.RestClient.
type SMSSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type NotificationService struct {
	cfg      *config.Config
	dispatch *DispatchService
	email    EmailSender
	sms      SMSSender
}

// NewNotificationService accepts nil senders for channels that are not configured.
func NewNotificationService(cfg *config.Config, dispatch *DispatchService, email EmailSender, sms SMSSender) *NotificationService {
	return &NotificationService{cfg: cfg, dispatch: dispatch, email: email, sms: sms}
}

func (s *NotificationService) emailEnabled() bool {
	return s.email != nil && s.cfg.LDFlag_SendgridFromEmail != ""
}

func (s *NotificationService) smsEnabled() bool {
	return s.sms != nil && s.cfg.LDFlag_TwilioFromPhone != ""
}

// NotifyRunSheets sends each route's run sheet for date to its operator by
// email and SMS, whichever the operator has contact details for. A failure on
// one route is recorded in its result and the rest still go out.
func (s *NotificationService) NotifyRunSheets(ctx context.Context, date time.Time) (*dtos.NotifyRunSheetsResponse, error) {
	if !s.emailEnabled() && !s.smsEnabled() {
		return nil, fmt.Errorf("%w: neither SendGrid nor Twilio is set up", utils.ErrServiceNotConfigured)
	}

	sheet, err := s.dispatch.BuildRunSheet(ctx, date)
	if err != nil {
		return nil, err
	}

	resp := &dtos.NotifyRunSheetsResponse{Date: sheet.Date, Results: []dtos.NotifyResultDTO{}}
	for _, run := range sheet.Routes {
		res := dtos.NotifyResultDTO{RouteID: run.RouteID}
		if run.Operator == nil {
			res.Error = constants.NotifyResultNoOperator
			resp.Results = append(resp.Results, res)
			continue
		}
		res.OperatorID = &run.Operator.ID

		var errs []string
		if s.emailEnabled() && utils.Val(run.Operator.Email) != "" {
			if err := s.sendRunSheetEmail(sheet, run); err != nil {
				errs = append(errs, err.Error())
			} else {
				res.Email = true
			}
		}
		if s.smsEnabled() && utils.Val(run.Operator.Phone) != "" {
			if err := s.sendRunSheetSMS(sheet, run); err != nil {
				errs = append(errs, err.Error())
			} else {
				res.SMS = true
			}
		}
		res.Error = strings.Join(errs, "; ")
		resp.Results = append(resp.Results, res)
	}
	return resp, nil
}

func (s *NotificationService) sendRunSheetEmail(sheet *dtos.RunSheetDTO, run dtos.RouteRunDTO) error {
	op := run.Operator
	day := sheet.Date.Format("Monday, January 2, 2006")

	from := mail.NewEmail(constants.EmailFromName, s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail(op.Name, *op.Email)
	subject := fmt.Sprintf(constants.EmailSubjectRunSheet, day)

	var plain strings.Builder
	var items strings.Builder
	fmt.Fprintf(&plain, "Hi %s,\n\nHere are your %d stops on %s for %s.\n\n", op.Name, len(run.Stops), run.RouteName, day)
	for _, st := range run.Stops {
		fmt.Fprintf(&plain, "%d. %s, %s\n", st.Number, st.BusinessName, st.Address)
		fmt.Fprintf(&items, "<li><strong>%s</strong><br>%s</li>", html.EscapeString(st.BusinessName), html.EscapeString(st.Address))
	}
	if sheet.Holiday {
		fmt.Fprintf(&plain, "\nNote: %s is a federal holiday.\n", holidayLabel(sheet))
	}
	plain.WriteString("\n- ProCan Dispatch")

	htmlContent := fmt.Sprintf(runSheetEmailHTML,
		html.EscapeString(op.Name),
		len(run.Stops),
		html.EscapeString(run.RouteName),
		html.EscapeString(day),
		items.String(),
	)

	msg := mail.NewSingleEmail(from, subject, to, plain.String(), htmlContent)
	msg.TrackingSettings = &mail.TrackingSettings{
		ClickTracking: &mail.ClickTrackingSetting{Enable: utils.Ptr(false)},
	}
	if s.cfg.LDFlag_SendgridSandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	r, err := s.email.Send(msg)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to send run sheet email for route %s", run.RouteID)
		return fmt.Errorf("%w: sendgrid: %v", utils.ErrExternalServiceFailure, err)
	}
	if r != nil && r.StatusCode >= 300 {
		utils.Logger.Errorf("SendGrid rejected run sheet email for route %s: %d %s", run.RouteID, r.StatusCode, r.Body)
		return fmt.Errorf("%w: sendgrid status %d", utils.ErrExternalServiceFailure, r.StatusCode)
	}
	return nil
}

func (s *NotificationService) sendRunSheetSMS(sheet *dtos.RunSheetDTO, run dtos.RouteRunDTO) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(*run.Operator.Phone)
	params.SetFrom(s.cfg.LDFlag_TwilioFromPhone)
	params.SetBody(runSheetSMSBody(sheet, run))

	if _, err := s.sms.CreateMessage(params); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to send run sheet SMS for route %s via Twilio", run.RouteID)
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}

func runSheetSMSBody(sheet *dtos.RunSheetDTO, run dtos.RouteRunDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ProCan %s: %d stops on %s.", utils.FormatISODate(sheet.Date.Time), len(run.Stops), run.RouteName)
	for i, st := range run.Stops {
		if i == constants.SMSMaxListedStops {
			fmt.Fprintf(&b, "\n+%d more", len(run.Stops)-i)
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", st.Number, st.Address)
	}
	return b.String()
}

const runSheetEmailHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>Hi %s,</p>
  <p>Here are your %d stops on <strong>%s</strong> for %s.</p>
  <ol>%s</ol>
  <p>- ProCan Dispatch</p>
</body>
</html>`

func holidayLabel(sheet *dtos.RunSheetDTO) string {
	if sheet.HolidayName != "" {
		return sheet.HolidayName
	}
	return "today"
}
