package app

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/topupbot/core/telegram"
	"github.com/m3rciful/topupbot/core/telegram/callbacks"
	"github.com/m3rciful/topupbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/topupbot/core/telegram/helpers"
	"github.com/m3rciful/topupbot/core/telegram/router"
	"github.com/m3rciful/topupbot/topup/flow"
	"github.com/m3rciful/topupbot/topup/review"
)

const (
	textSendAsPhoto   = "Please send the payment screenshot as a photo, not as a file."
	textRateLimited   = "You are sending messages too fast. Please wait a moment."
	textAdminOnly     = "This command is for the admin only."
	textReportFailed  = "Could not load orders right now."
	textUnsupportedCB = "Unsupported action"
)

func (a *App) registry() (*coretelegram.Registry, error) {
	reg := coretelegram.NewRegistry()
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: a.handleStart, Description: "Start and see how ordering works"}},
		{"/ask", commands.Command{Handler: a.handleAsk, Description: "Ask a question"}},
		{"/cancel", commands.Command{Handler: a.handleCancel, Description: "Cancel the order in progress"}},
		{"/orders", commands.Command{Handler: a.handleOrders, Description: "List pending orders", AdminOnly: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return nil, err
		}
	}

	cbs := map[string]tele.HandlerFunc{
		flow.UniqueBuyNow:    a.handleBuyNow,
		review.UniqueApprove: a.decisionHandler(review.ActionApprove),
		review.UniqueReject:  a.decisionHandler(review.ActionReject),
		review.UniqueNoop:    a.handleNoop,
	}
	for key, h := range cbs {
		if err := reg.RegisterCallback(key, h); err != nil {
			return nil, err
		}
	}
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return a.respond(c, &tele.CallbackResponse{Text: textUnsupportedCB})
	})
	return reg, nil
}

func (a *App) routes(reg *coretelegram.Registry) []coretelegram.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return a.msg.SendText(tghelpers.BuildContext(c), tghelpers.ChatID(c), textAdminOnly, nil)
		},
	})
	routes = append(routes, router.CallbackRoute(reg))
	return append(routes, router.MessageRoutes(router.MessageHandlers{
		Text:     a.handleText,
		Photo:    a.handlePhoto,
		Document: a.handleDocument,
	})...)
}

func (a *App) onRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return a.respond(c, &tele.CallbackResponse{Text: textRateLimited})
	}
	return a.msg.SendText(tghelpers.BuildContext(c), tghelpers.ChatID(c), textRateLimited, nil)
}

func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// editable returns the callback message, keeping a nil pointer out of the interface.
func editable(c tele.Context) tele.Editable {
	if m := c.Message(); m != nil {
		return m
	}
	return nil
}

func (a *App) handleStart(c tele.Context) error {
	var first string
	if u := c.Sender(); u != nil {
		first = u.FirstName
	}
	return a.flow.Welcome(tghelpers.BuildContext(c), tghelpers.ChatID(c), first)
}

func (a *App) handleAsk(c tele.Context) error {
	var question string
	if m := c.Message(); m != nil {
		question = m.Payload
	}
	return a.flow.Ask(tghelpers.BuildContext(c), tghelpers.ChatID(c), question)
}

func (a *App) handleCancel(c tele.Context) error {
	return a.flow.Cancel(tghelpers.BuildContext(c), tghelpers.SenderID(c), tghelpers.ChatID(c))
}

func (a *App) handleOrders(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	report, err := a.review.PendingReport(ctx)
	if err != nil {
		_ = a.msg.SendText(ctx, tghelpers.ChatID(c), textReportFailed, nil)
		return err
	}
	return a.msg.SendText(ctx, tghelpers.ChatID(c), report, nil)
}

func (a *App) handleBuyNow(c tele.Context) error {
	_ = a.respond(c, nil)
	return a.flow.ShowCatalog(tghelpers.BuildContext(c), tghelpers.ChatID(c), editable(c))
}

func (a *App) handleNoop(c tele.Context) error {
	return a.respond(c, nil)
}

func (a *App) decisionHandler(action review.Action) tele.HandlerFunc {
	return func(c tele.Context) error {
		// A missing payload is reported as an unknown order by the review service.
		id, _ := callbacks.PayloadID(c)
		res, err := a.review.Decide(tghelpers.BuildContext(c), review.Request{
			OrderID: id,
			ActorID: tghelpers.SenderID(c),
			ChatID:  tghelpers.ChatID(c),
			Action:  action,
			Message: editable(c),
		})
		_ = a.respond(c, &tele.CallbackResponse{Text: decisionToast(res)})
		return err
	}
}

func decisionToast(res review.Result) string {
	switch res {
	case review.ResultDone:
		return "Done"
	case review.ResultAlreadyProcessed:
		return "Already processed"
	case review.ResultDenied:
		return "Not allowed"
	case review.ResultNotFound:
		return "Order not found"
	}
	return "Failed"
}

func (a *App) event(c tele.Context, kind flow.Kind) flow.Event {
	return flow.Event{
		UserID:   tghelpers.SenderID(c),
		ChatID:   tghelpers.ChatID(c),
		UserName: displayName(c.Sender()),
		Kind:     kind,
	}
}

func (a *App) handleText(c tele.Context) error {
	ev := a.event(c, flow.KindText)
	ev.Text = c.Text()
	return a.flow.Handle(tghelpers.BuildContext(c), ev)
}

func (a *App) handlePhoto(c tele.Context) error {
	ev := a.event(c, flow.KindPhoto)
	if m := c.Message(); m != nil && m.Photo != nil {
		ev.PhotoID = m.Photo.FileID
	}
	return a.flow.Handle(tghelpers.BuildContext(c), ev)
}

func (a *App) handleDocument(c tele.Context) error {
	return a.msg.SendText(tghelpers.BuildContext(c), tghelpers.ChatID(c), textSendAsPhoto, nil)
}
