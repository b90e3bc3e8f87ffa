// Package bot — commands.go разбирает команды операторов и готовит ответы.
// Отправкой занимается bot.go, здесь только логика и тексты.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/features/leaderboard"
	"serotonyl.ru/boostly/internal/features/monthlyreset"
	"serotonyl.ru/boostly/internal/features/students"
)

// Максимальный размер /top в чате: длинные списки Telegram режет.
const maxTopInChat = 25

const helpText = `Boostly: бот операторов.

/login <пароль>: вход (только в личке)
/logout: выход
/top [N]: лучшие получатели благодарностей
/balance <campus_uid>: баланс студента
/reset: запустить ежемесячный сброс сейчас`

// Leaderboard — источник рейтинга.
type Leaderboard interface {
	Top(ctx context.Context, limit int) ([]leaderboard.Entry, error)
}

// Students — поиск студента и его баланса.
type Students interface {
	GetByCampusUID(ctx context.Context, campusUID string) (*students.Student, error)
	Balance(ctx context.Context, id uuid.UUID) (*students.BalanceView, error)
}

// Access — вход операторов.
type Access interface {
	Login(ctx context.Context, userID int64, password string) error
	Authorize(ctx context.Context, userID int64) error
	Logout(ctx context.Context, userID int64) error
	PromptPassword(userID int64)
	TakePrompt(userID int64) bool
}

// Resetter — ежемесячный сброс.
type Resetter interface {
	Run(ctx context.Context, now time.Time) (*monthlyreset.Summary, error)
}

// Incoming — входящее текстовое сообщение.
type Incoming struct {
	UserID  int64
	ChatID  int64
	Private bool
	Text    string
}

// Commands отвечает на команды.
type Commands struct {
	leaderboard Leaderboard
	students    Students
	access      Access
	resetter    Resetter
	now         func() time.Time
}

// NewCommands создаёт обработчик команд.
func NewCommands(lb Leaderboard, st Students, access Access, resetter Resetter) *Commands {
	return &Commands{
		leaderboard: lb,
		students:    st,
		access:      access,
		resetter:    resetter,
		now:         time.Now,
	}
}

// Handle возвращает ответ на сообщение. ok=false — отвечать не нужно.
func (c *Commands) Handle(ctx context.Context, in Incoming) (reply string, ok bool) {
	cmd, args, isCommand := ParseCommand(in.Text)

	if !isCommand {
		// Пароль, присланный после /login без аргумента
		if in.Private && c.access.TakePrompt(in.UserID) {
			return c.login(ctx, in, strings.TrimSpace(in.Text)), true
		}
		return "", false
	}

	log.WithFields(log.Fields{
		"cmd":     cmd,
		"user_id": in.UserID,
	}).Debug("Команда оператора")

	switch cmd {
	case "start", "help":
		return helpText, true
	case "login":
		if !in.Private {
			return "Вход только в личных сообщениях.", true
		}
		if len(args) == 0 {
			c.access.PromptPassword(in.UserID)
			return "Введите пароль:", true
		}
		return c.login(ctx, in, strings.Join(args, " ")), true
	case "logout":
		if err := c.access.Logout(ctx, in.UserID); err != nil {
			return failText(err), true
		}
		return "Сессия закрыта.", true
	case "top", "balance", "reset":
	default:
		return "", false
	}

	if err := c.access.Authorize(ctx, in.UserID); err != nil {
		return "❌ " + accessText(err), true
	}

	switch cmd {
	case "top":
		return c.top(ctx, args), true
	case "balance":
		return c.balance(ctx, args), true
	default:
		return c.reset(ctx), true
	}
}

func (c *Commands) login(ctx context.Context, in Incoming, password string) string {
	if password == "" {
		return "Пустой пароль. Повторите /login."
	}
	if err := c.access.Login(ctx, in.UserID, password); err != nil {
		return "❌ " + accessText(err)
	}
	return "✅ Вход выполнен на 24 часа."
}

func (c *Commands) top(ctx context.Context, args []string) string {
	limit := leaderboard.DefaultLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "Использование: /top [N]"
		}
		limit = common.ClampInt(n, 1, maxTopInChat)
	}

	entries, err := c.leaderboard.Top(ctx, limit)
	if err != nil {
		return failText(err)
	}
	return FormatLeaderboard(entries)
}

func (c *Commands) balance(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Использование: /balance <campus_uid>"
	}
	st, err := c.students.GetByCampusUID(ctx, args[0])
	if err != nil {
		return failText(err)
	}
	view, err := c.students.Balance(ctx, st.ID)
	if err != nil {
		return failText(err)
	}
	return FormatBalance(view)
}

func (c *Commands) reset(ctx context.Context) string {
	summary, err := c.resetter.Run(ctx, c.now())
	if summary == nil {
		return failText(err)
	}
	text := summary.String()
	if err != nil {
		log.WithError(err).Error("Сброс по команде завершился с ошибками")
		text += "\nПодробности в логах."
	}
	return text
}

// FormatLeaderboard форматирует рейтинг для чата.
func FormatLeaderboard(entries []leaderboard.Entry) string {
	if len(entries) == 0 {
		return "Рейтинг пуст."
	}
	var sb strings.Builder
	sb.WriteString("🏆 Лучшие получатели\n\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. %s (%s): %s, благодарностей %d, одобрений %d\n",
			i+1, e.DisplayName, e.CampusUID, common.FormatCredits(e.TotalCreditsReceived),
			e.RecognitionsReceived, e.EndorsementsReceived)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatBalance форматирует баланс студента.
func FormatBalance(v *students.BalanceView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 %s (%s)\n", v.Student.DisplayName, v.Student.CampusUID)
	fmt.Fprintf(&sb, "Баланс: %s\n", common.FormatCredits(v.Balances.Total))
	fmt.Fprintf(&sb, "Доступно к обмену: %s\n", common.FormatCredits(v.Balances.Redeemable))
	fmt.Fprintf(&sb, "Можно отправить в этом месяце: %s", common.FormatCredits(v.RemainingAllowance))
	if v.Quota != nil && v.Quota.CarryForwardCredits > 0 {
		fmt.Fprintf(&sb, "\nПеренесено с прошлого месяца: %s", common.FormatCredits(v.Quota.CarryForwardCredits))
	}
	return sb.String()
}

// ParseCommand разбирает "/cmd@bot arg1 arg2" или "!cmd arg1".
func ParseCommand(text string) (cmd string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" || (text[0] != '/' && text[0] != '!') {
		return "", nil, false
	}

	parts := strings.Fields(text[1:])
	if len(parts) == 0 {
		return "", nil, false
	}

	cmd = strings.ToLower(parts[0])
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	if cmd == "" {
		return "", nil, false
	}
	return cmd, parts[1:], true
}

// accessText переводит ошибки входа в текст для пользователя.
func accessText(err error) string {
	switch {
	case errors.Is(err, common.ErrNotAdmin),
		errors.Is(err, common.ErrWrongPassword),
		errors.Is(err, common.ErrTooManyAttempts),
		errors.Is(err, common.ErrSessionExpired):
		return capitalize(err.Error())
	}
	log.WithError(err).Error("Ошибка проверки доступа")
	return "Не удалось проверить доступ, попробуйте позже."
}

// failText переводит ошибку команды в текст: нарушения правил показываем как есть.
func failText(err error) string {
	if v, ok := common.AsViolation(err); ok {
		return "❌ " + v.Detail
	}
	log.WithError(err).Error("Ошибка выполнения команды")
	return "❌ Внутренняя ошибка, попробуйте позже."
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
