package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"tasks-api/internal/logger"
	"tasks-api/internal/manager"
	"tasks-api/internal/models"
	"tasks-api/internal/storage"
	"tasks-api/internal/validation"
)

// Replies are sent with legacy Markdown, so any text that is not meant as
// formatting goes through escapeMarkdown.
var helpText = "*Commands*\n\n" + escapeMarkdown(`/add <task> - add a task
/list [all|completed|not_completed] - show tasks
/done <id> - mark a task as completed
/undo <id> - mark a task as not completed
/delete <id> - delete a task
/help - show this help

Any other text is added as a new task.`)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

type Bot struct {
	api       *tgbotapi.BotAPI
	tasks     *manager.TaskManager
	validator *validation.TaskValidator
}

func NewBot(token string, debug bool, tasks *manager.TaskManager, validator *validation.TaskValidator) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	api.Debug = debug

	logger.Info(context.Background(), "telegram bot authorized", "username", api.Self.UserName)
	return &Bot{api: api, tasks: tasks, validator: validator}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	logger.Info(ctx, "bot is listening for messages")
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	logger.Info(ctx, "message received", "chat_id", msg.Chat.ID, "text", msg.Text)

	command, args := "", strings.TrimSpace(msg.Text)
	if msg.IsCommand() {
		command, args = msg.Command(), strings.TrimSpace(msg.CommandArguments())
	}

	b.send(msg.Chat.ID, b.respond(ctx, command, args))
}

// respond executes one command and returns the reply text. An empty command
// means plain text, which is added as a task.
func (b *Bot) respond(ctx context.Context, command, args string) string {
	switch command {
	case "":
		if args == "" {
			return helpText
		}
		return b.addTask(ctx, args)
	case "start", "help":
		return helpText
	case "add":
		if args == "" {
			return "Put the task after the command: /add buy milk"
		}
		return b.addTask(ctx, args)
	case "list":
		return b.listTasks(ctx, args)
	case "done":
		return b.setCompleted(ctx, args, true)
	case "undo":
		return b.setCompleted(ctx, args, false)
	case "delete":
		return b.deleteTask(ctx, args)
	default:
		return "Unknown command. Use /help to see the list of commands."
	}
}

func (b *Bot) addTask(ctx context.Context, text string) string {
	draft, err := b.validator.Validate(map[string]any{"description": text}, nil, false)
	if err != nil {
		return "Error: " + escapeMarkdown(err.Error())
	}

	task, err := b.tasks.Create(ctx, draft)
	if err != nil {
		return b.failure(ctx, err)
	}
	return fmt.Sprintf("Task added\n\nID: #%d\nTask: %s", task.ID, escapeMarkdown(task.Description))
}

func (b *Bot) listTasks(ctx context.Context, status string) string {
	tasks, err := b.tasks.List(ctx, models.ParseStatus(status).Filter())
	if err != nil {
		return b.failure(ctx, err)
	}
	return formatTasks(tasks)
}

func (b *Bot) setCompleted(ctx context.Context, args string, completed bool) string {
	id, reply, ok := parseID(args)
	if !ok {
		return reply
	}

	existing, err := b.tasks.Get(ctx, id)
	if err != nil {
		return b.failure(ctx, err)
	}

	draft, err := b.validator.Validate(map[string]any{"completed": completed}, &existing, true)
	if err != nil {
		return "Error: " + escapeMarkdown(err.Error())
	}
	if _, err := b.tasks.Update(ctx, id, draft); err != nil {
		return b.failure(ctx, err)
	}

	if completed {
		return fmt.Sprintf("Task #%d marked as completed", id)
	}
	return fmt.Sprintf("Task #%d marked as not completed", id)
}

func (b *Bot) deleteTask(ctx context.Context, args string) string {
	id, reply, ok := parseID(args)
	if !ok {
		return reply
	}

	if err := b.tasks.Delete(ctx, id); err != nil {
		return b.failure(ctx, err)
	}
	return fmt.Sprintf("Task #%d deleted", id)
}

func (b *Bot) failure(ctx context.Context, err error) string {
	if errors.Is(err, storage.ErrNotFound) {
		return "Task not found"
	}
	logger.Error(ctx, err, "bot command failed")
	return "Something went wrong, try again later"
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := b.api.Send(msg); err != nil {
		logger.Error(context.Background(), err, "failed to send message", "chat_id", chatID)
	}
}

func formatTasks(tasks []models.Task) string {
	if len(tasks) == 0 {
		return "The task list is empty"
	}

	var sb strings.Builder
	sb.WriteString("*Your tasks:*\n\n")
	for _, task := range tasks {
		mark := "[ ]"
		if task.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(&sb, "%s #%d: %s\n", escapeMarkdown(mark), task.ID, escapeMarkdown(task.Description))
	}
	return sb.String()
}

// parseID returns the task id from the command arguments, or the reply to
// send when they do not hold one.
func parseID(args string) (int64, string, bool) {
	if args == "" {
		return 0, "Put the task number after the command, e.g. /done 1", false
	}
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return 0, "The task number must be a number", false
	}
	return id, "", true
}
