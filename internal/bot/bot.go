package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageName
	stageDescription
	stagePeriodicity
)

const (
	cbCheckPrefix   = "check:"
	cbUncheckPrefix = "uncheck:"
	cbStatsPrefix   = "stats:"
)

type conversationState struct {
	stage       conversationStage
	name        string
	description string
}

type confirmationAction int

const (
	actionReset confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	name   string
	action confirmationAction
}

// Bot serves the habits of a single owner over Telegram.
type Bot struct {
	api      *tgbotapi.BotAPI
	ownerID  int64
	habits   *service.HabitService
	reminder *service.ReminderService
	logger   *zap.Logger

	mu           sync.Mutex
	conversation *conversationState
	confirmation *confirmationRequest
}

func New(token string, ownerID int64, habits *service.HabitService, reminder *service.ReminderService, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := newBot(api, ownerID, habits, reminder, logger)
	b.logger.Info("Bot authorized", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(api *tgbotapi.BotAPI, ownerID int64, habits *service.HabitService, reminder *service.ReminderService, logger *zap.Logger) *Bot {
	return &Bot{
		api:      api,
		ownerID:  ownerID,
		habits:   habits,
		reminder: reminder,
		logger:   logger.Named("bot"),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("Start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

// handleUpdate serves one update. Only private messages and callbacks from
// the owner are handled.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.isOwner(update.CallbackQuery.From) {
			b.ignore(update.CallbackQuery.From)
			return
		}
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.logger.Error("Handle callback", zap.Error(err))
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if !b.isOwner(update.Message.From) {
			b.ignore(update.Message.From)
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Error("Handle message", zap.Error(err))
		}
	}
}

func (b *Bot) isOwner(from *tgbotapi.User) bool {
	return from != nil && from.ID == b.ownerID
}

func (b *Bot) ignore(from *tgbotapi.User) {
	if from == nil {
		return
	}
	b.logger.Warn("Ignoring update from stranger", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation()
		b.clearConfirmation()
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.logger.Info("Command", zap.String("command", msg.Command()), zap.String("args", msg.CommandArguments()))
		return b.handleCommand(ctx, msg)
	}

	if pending := b.getConfirmation(); pending != nil {
		return b.handleConfirmationResponse(ctx, msg, *pending)
	}

	if state := b.getConversation(); state != nil {
		b.logger.Debug("Conversation step", zap.Int("stage", int(state.stage)))
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Send /habits to see your habits or /help for the commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "habits":
		return b.sendHabitList(msg.Chat.ID)
	case "newhabit":
		return b.startNewHabitConversation(msg)
	case "check":
		return b.handleCheck(ctx, msg.Chat.ID, arg)
	case "uncheck":
		return b.handleUncheck(ctx, msg.Chat.ID, arg)
	case "stats":
		return b.handleStats(msg.Chat.ID, arg)
	case "report":
		return b.handleReport(msg)
	case "reset":
		return b.askConfirmation(msg.Chat.ID, arg, actionReset)
	case "delete":
		return b.askConfirmation(msg.Chat.ID, arg, actionDelete)
	case "cancel":
		b.clearConversation()
		b.clearConfirmation()
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Have a look at /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := "there"
	if msg.From != nil && strings.TrimSpace(msg.From.FirstName) != "" {
		name = strings.TrimSpace(msg.From.FirstName)
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>You are tracking %d habits. Let's do more!</b>\n\n%s",
		escape(name), len(b.habits.Habits()), commandList,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+commandList)
}

const commandList = "• /habits: habits of the current period, check them off with the buttons\n" +
	"• /newhabit: start tracking a new habit\n" +
	"• /check &lt;name&gt;: check a habit off\n" +
	"• /uncheck &lt;name&gt;: undo today's check-off\n" +
	"• /stats [name]: streaks and breaks of one habit or all of them\n" +
	"• /report: the daily reminder right now\n" +
	"• /reset &lt;name&gt;: clear the history of a habit\n" +
	"• /delete &lt;name&gt;: stop tracking a habit\n" +
	"• /cancel: cancel the current input"

func (b *Bot) handleReport(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, b.reminder.DailySummary(b.habits.Now()))
}

// SendDailyReminder sends the daily summary to the owner.
func (b *Bot) SendDailyReminder(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := b.reminder.DailySummary(b.habits.Now())
	if err := b.sendText(b.ownerID, text); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	b.logger.Info("Daily reminder sent")
	return nil
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64, name string) error {
	if name == "" {
		return b.sendHabitList(chatID)
	}
	h, err := b.habits.Get(name)
	if err != nil {
		return b.sendFailure(chatID, err)
	}
	if h.IsCheckedOff(b.habits.Now()) {
		return b.sendText(chatID, fmt.Sprintf("<b>%s</b> is already checked off.", escape(name)))
	}
	if _, err := b.habits.CheckOff(ctx, name); err != nil {
		return b.sendFailure(chatID, err)
	}
	return b.sendHabitList(chatID)
}

func (b *Bot) handleUncheck(ctx context.Context, chatID int64, name string) error {
	if name == "" {
		return b.sendText(chatID, "Name the habit: /uncheck water")
	}
	changed, err := b.habits.Uncheck(ctx, name)
	if err != nil {
		return b.sendFailure(chatID, err)
	}
	if !changed {
		return b.sendText(chatID, fmt.Sprintf("<b>%s</b> is not checked off.", escape(name)))
	}
	return b.sendHabitList(chatID)
}

func (b *Bot) handleStats(chatID int64, name string) error {
	now := b.habits.Now()
	if name == "" {
		reports, irregular, err := service.PartitionReports(b.habits.Habits(), now)
		if err != nil {
			return b.sendFailure(chatID, err)
		}
		return b.sendText(chatID, formatAnalytics(reports, irregular))
	}

	h, err := b.habits.Get(name)
	if err != nil {
		return b.sendFailure(chatID, err)
	}
	r, err := service.BuildReport(h, now)
	if err != nil {
		return b.sendFailure(chatID, err)
	}
	return b.sendText(chatID, formatReport(r))
}

func (b *Bot) startNewHabitConversation(msg *tgbotapi.Message) error {
	b.clearConfirmation()
	b.setConversation(&conversationState{stage: stageName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "➕ How should the new habit be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The name cannot be empty. Try again.", cancelKeyboard())
		}
		exists, err := b.habits.Exists(ctx, text)
		if err != nil {
			return err
		}
		if exists {
			return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("<b>%s</b> already exists. Pick another name.", escape(text)), cancelKeyboard())
		}
		state.name = text
		state.stage = stageDescription
		b.setConversation(state)
		return b.sendWithReplyMarkup(msg.Chat.ID, "📝 Describe it in a few words.", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.description = text
		}
		state.stage = stagePeriodicity
		b.setConversation(state)
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 How often is it due?", periodicityKeyboard())
	case stagePeriodicity:
		p, err := habit.ParsePeriodicity(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Choose one of the buttons.", periodicityKeyboard())
		}
		b.clearConversation()
		h, err := b.habits.Add(ctx, state.name, state.description, p, "")
		if err != nil {
			return b.sendFailure(msg.Chat.ID, err)
		}
		b.logger.Info("Habit added", zap.String("name", h.Name), zap.String("periodicity", h.Periodicity.String()))
		if err := b.sendText(msg.Chat.ID, fmt.Sprintf("✨ Now tracking <b>%s</b> (%s).", escape(h.Name), h.Periodicity)); err != nil {
			return err
		}
		return b.sendHabitList(msg.Chat.ID)
	default:
		b.clearConversation()
		return nil
	}
}

func (b *Bot) askConfirmation(chatID int64, name string, action confirmationAction) error {
	verb := "reset"
	if action == actionDelete {
		verb = "delete"
	}
	if name == "" {
		return b.sendText(chatID, fmt.Sprintf("Name the habit: /%s water", verb))
	}
	if _, err := b.habits.Get(name); err != nil {
		return b.sendFailure(chatID, err)
	}

	b.clearConversation()
	b.setConfirmation(&confirmationRequest{name: name, action: action})

	prompt := fmt.Sprintf("Clear the whole history of <b>%s</b>?", escape(name))
	if action == actionDelete {
		prompt = fmt.Sprintf("Stop tracking <b>%s</b> and delete its history?", escape(name))
	}
	return b.sendWithReplyMarkup(chatID, prompt, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	switch {
	case isConfirmInput(msg.Text):
		b.clearConfirmation()
		if req.action == actionDelete {
			if err := b.habits.Delete(ctx, req.name); err != nil {
				return b.sendFailure(msg.Chat.ID, err)
			}
			return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 <b>%s</b> deleted.", escape(req.name)))
		}
		if err := b.habits.Reset(ctx, req.name); err != nil {
			return b.sendFailure(msg.Chat.ID, err)
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🧹 History of <b>%s</b> cleared.", escape(req.name)))
	case isCancelInput(msg.Text):
		b.clearConfirmation()
		return b.sendText(msg.Chat.ID, "Nothing changed.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel with the buttons.", confirmKeyboard())
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewHabit):
		return true, b.startNewHabitConversation(msg)
	case strings.ToLower(menuLabelHabits):
		return true, b.sendHabitList(msg.Chat.ID)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(msg.Chat.ID, "")
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendHabitList(chatID int64) error {
	text, markup := habitListView(b.habits.Habits(), b.habits.Now())
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) refreshHabitList(chatID int64, messageID int) error {
	text, markup := habitListView(b.habits.Habits(), b.habits.Now())
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil {
		return nil
	}
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID

	prefix, name, ok := parseCallback(cb.Data)
	if !ok {
		b.ack(cb.ID, "")
		return nil
	}
	b.logger.Info("Callback", zap.String("action", strings.TrimSuffix(prefix, ":")), zap.String("name", name))

	switch prefix {
	case cbCheckPrefix:
		if _, err := b.habits.Get(name); err != nil {
			b.ack(cb.ID, "Habit is gone")
			return b.refreshHabitList(chatID, messageID)
		}
		if _, err := b.habits.CheckOff(ctx, name); err != nil {
			b.ack(cb.ID, "")
			return b.sendFailure(chatID, err)
		}
		b.ack(cb.ID, "✅ "+shortTitle(name, 40))
		return b.refreshHabitList(chatID, messageID)
	case cbUncheckPrefix:
		if _, err := b.habits.Uncheck(ctx, name); err != nil {
			b.ack(cb.ID, "")
			return b.sendFailure(chatID, err)
		}
		b.ack(cb.ID, "↩️ "+shortTitle(name, 40))
		return b.refreshHabitList(chatID, messageID)
	case cbStatsPrefix:
		b.ack(cb.ID, "")
		return b.handleStats(chatID, name)
	}
	return nil
}

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Warn("Callback ack", zap.Error(err))
	}
}

// sendFailure reports err to the owner. Unknown failures are logged and
// returned to the update loop.
func (b *Bot) sendFailure(chatID int64, err error) error {
	var irr *habit.IrregularHistoryError
	switch {
	case errors.As(err, &irr):
		b.logger.Warn("Irregular history", zap.String("name", irr.Habit))
		return b.sendText(chatID, fmt.Sprintf("⚠️ History of <b>%s</b> is inconsistent, consider resetting it with /reset %s", escape(irr.Habit), escape(irr.Habit)))
	case errors.Is(err, service.ErrHabitNotFound):
		return b.sendText(chatID, "No such habit. See /habits.")
	case errors.Is(err, service.ErrHabitExists):
		return b.sendText(chatID, "A habit with that name already exists.")
	}
	if sendErr := b.sendText(chatID, fmt.Sprintf("Something went wrong: %s", escape(err.Error()))); sendErr != nil {
		b.logger.Error("Send failure notice", zap.Error(sendErr))
	}
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation() *confirmationRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.confirmation
}

func (b *Bot) setConfirmation(req *confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmation = req
}

func (b *Bot) clearConfirmation() {
	b.setConfirmation(nil)
}

func (b *Bot) getConversation() *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversation
}

func (b *Bot) setConversation(state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversation = state
}

func (b *Bot) clearConversation() {
	b.setConversation(nil)
}
