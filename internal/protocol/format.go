// Package protocol renders result protocols as plain text and publishes them
// to blob storage.
package protocol

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mind-engage/fapquiz/internal/grading"
	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/report"
)

// FormatDuration renders d as MM:SS, rounding to whole seconds half to even.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(math.RoundToEven(d.Seconds()))
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// FolderName names the directory holding one testee's protocols.
func FolderName(id report.Identity, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", safe(id.LastName), safe(id.FirstName), at.Format("02_01_2006_15_04"))
}

// runFolder appends the attempt and run to FolderName so that namesakes
// finishing in the same minute, or a restarted attempt, never share a key.
func runFolder(sum report.Summary, at time.Time) string {
	folder := FolderName(sum.Identity, at)
	if sum.Meta.AttemptID == "" {
		return folder
	}
	id := safe(sum.Meta.AttemptID)
	if len(id) > 8 {
		id = id[:8]
	}
	folder += "_" + id
	if sum.Meta.Run > 1 {
		folder += fmt.Sprintf("_r%d", sum.Meta.Run)
	}
	return folder
}

func MainFileName(id report.Identity) string {
	return fmt.Sprintf("Протокол_тестирования_%s_%s.txt", safe(id.LastName), safe(id.FirstName))
}

func DetailedFileName(id report.Identity) string {
	return fmt.Sprintf("Детальная_статистика_%s_%s.txt", safe(id.LastName), safe(id.FirstName))
}

var unsafeChars = strings.NewReplacer("/", "_", `\`, "_", "..", "_", " ", "_")

func safe(s string) string {
	s = unsafeChars.Replace(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}

func verdict(b report.Band) string {
	switch b {
	case report.BandExcellent:
		return "ОТЛИЧНО - Тест пройден успешно!"
	case report.BandReview:
		return "ХОРОШО - Тест пройден, рекомендуется повторение материала."
	}
	return "НЕУДОВЛЕТВОРИТЕЛЬНО - Требуется дополнительное обучение."
}

func fullName(id report.Identity) string {
	return strings.TrimSpace(strings.Join([]string{id.LastName, id.FirstName, id.MiddleName}, " "))
}

func category(meta report.Meta) string {
	if meta.Category == "" {
		return "Все категории"
	}
	return meta.Category
}

func detailCategory(c string) string {
	if c == "" || c == report.Unspecified {
		return "Не указана"
	}
	return c
}

const stamp = "2006-01-02 15:04:05"

// RenderMain renders the summary protocol.
func RenderMain(s report.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nПРОТОКОЛ ТЕСТИРОВАНИЯ\n=====================\n\n")
	fmt.Fprintf(&b, "Дата генерации: %s\n\n", s.Meta.GeneratedAt.Format(stamp))
	fmt.Fprintf(&b, "ДАННЫЕ ТЕСТИРУЕМОГО:\n-------------------\n")
	fmt.Fprintf(&b, "ФИО: %s\n", fullName(s.Identity))
	fmt.Fprintf(&b, "Должность: %s\n", s.Identity.Position)
	fmt.Fprintf(&b, "Дата тестирования: %s\n\n", s.Identity.LoginTime.Format(stamp))
	fmt.Fprintf(&b, "ИНФОРМАЦИЯ О ТЕСТЕ:\n------------------\n")
	fmt.Fprintf(&b, "Тема: %s\n", s.Meta.ThemeName)
	fmt.Fprintf(&b, "Категория: %s\n", category(s.Meta))
	fmt.Fprintf(&b, "Количество вопросов: %d\n\n", s.TotalQuestions)
	fmt.Fprintf(&b, "РЕЗУЛЬТАТЫ ТЕСТИРОВАНИЯ:\n-----------------------\n")
	fmt.Fprintf(&b, "Набрано баллов: %.2f из %.0f\n", s.TotalScore, s.MaxScore)
	fmt.Fprintf(&b, "Процент выполнения: %.1f%%\n", s.Percentage)
	fmt.Fprintf(&b, "Общее время: %s\n", FormatDuration(s.TotalElapsed))
	fmt.Fprintf(&b, "Среднее время на вопрос: %s\n\n", FormatDuration(s.AverageElapsed))
	fmt.Fprintf(&b, "ОЦЕНКА:\n-------\n%s\n\n", verdict(s.Band))
	fmt.Fprintf(&b, "=====================\nДетальная статистика по вопросам сохранена в отдельном файле.\n")
	return b.String()
}

const (
	boxTop = "╔═══════════════════════════════════════════════════════════════════\n"
	boxSep = "╟───────────────────────────────────────────────────────────────────\n"
	boxEnd = "╚═══════════════════════════════════════════════════════════════════\n"
	noAns  = "Нет ответа"
)

// RenderDetailed renders the per-question protocol with the testee's answer
// next to the expected one.
func RenderDetailed(s report.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nДЕТАЛЬНАЯ СТАТИСТИКА ПО ВОПРОСАМ\n================================\n\n")
	fmt.Fprintf(&b, "ФИО: %s\n", fullName(s.Identity))
	fmt.Fprintf(&b, "Тема тестирования: %s\n", s.Meta.ThemeName)
	fmt.Fprintf(&b, "Дата тестирования: %s\n\n", s.Identity.LoginTime.Format(stamp))
	fmt.Fprintf(&b, "СТАТИСТИКА ПО ВОПРОСАМ:\n======================\n")

	for _, d := range s.Details {
		fmt.Fprintf(&b, "\nВопрос %d:\n", d.Number)
		b.WriteString(boxTop)
		fmt.Fprintf(&b, "║ Баллы: %.2f/1.00\n", d.Score)
		fmt.Fprintf(&b, "║ Время: %s\n", FormatDuration(d.Elapsed))
		fmt.Fprintf(&b, "║ Категория: %s\n", detailCategory(d.Category))
		b.WriteString(boxSep)
		fmt.Fprintf(&b, "║ ВОПРОС: %s\n", d.Text)
		b.WriteString(boxSep)
		writeAnswer(&b, d.Question, d.Answer)
		b.WriteString(boxEnd)
	}
	b.WriteString("\n" + strings.Repeat("=", 70))
	b.WriteString("\nСтатистика сгенерирована автоматически системой тестирования ФАП\n")
	return b.String()
}

func status(ok bool) string {
	if ok {
		return "✅ ВЕРНО"
	}
	return "❌ НЕВЕРНО"
}

func writeAnswer(b *strings.Builder, q quiz.Question, a quiz.Answer) {
	switch v := q.(type) {
	case quiz.SingleChoice:
		writeChoice(b, v.Options, v.Correct, a)
	case quiz.Dropdown:
		writeChoice(b, v.Options, v.Correct, a)
	case quiz.MultipleChoice:
		sel, _ := a.(quiz.SelectionAnswer)
		user := noAns
		if len(sel.Selected) > 0 {
			user = strings.Join(sel.Selected, ", ")
		}
		fmt.Fprintf(b, "║ ВАРИАНТЫ: %s\n", strings.Join(v.Options, ", "))
		fmt.Fprintf(b, "║ ВАШИ ОТВЕТЫ: %s\n", user)
		fmt.Fprintf(b, "║ ПРАВИЛЬНЫЕ ОТВЕТЫ: %s\n", strings.Join(v.Correct, ", "))
		if sameSet(sel.Selected, v.Correct) {
			b.WriteString("║ СТАТУС: ✅ ВСЕ ОТВЕТЫ ВЕРНЫ\n")
		} else {
			b.WriteString("║ СТАТУС: ⚠️ ЧАСТИЧНО ВЕРНО\n")
		}
	case quiz.Matching:
		m, _ := a.(quiz.MappingAnswer)
		b.WriteString("║ СООТВЕТСТВИЯ:\n")
		for _, left := range v.LeftColumn {
			got, ok := m[left]
			if !ok {
				got = noAns
			}
			want := v.CorrectMapping[left]
			fmt.Fprintf(b, "║   • %s: %s → %s (%s)\n", left, got, want, status(got == want))
		}
	case quiz.DoubleDropdown:
		m, _ := a.(quiz.MappingAnswer)
		b.WriteString("║ ПОДВОПРОСЫ:\n")
		for _, sq := range v.Subquestions {
			got, ok := m[sq.Key]
			if !ok {
				got = noAns
			}
			fmt.Fprintf(b, "║   • %s: %s → %s (%s)\n", sq.Text, got, sq.Correct, status(got == sq.Correct))
		}
	case quiz.Ordering:
		o, _ := a.(quiz.OrderingAnswer)
		user := grading.ReconstructOrder(o)
		got := noAns
		if len(user) > 0 {
			got = strings.Join(user, ", ")
		}
		fmt.Fprintf(b, "║ ЭЛЕМЕНТЫ: %s\n", strings.Join(v.Items, ", "))
		fmt.Fprintf(b, "║ ВАШ ПОРЯДОК: %s\n", got)
		fmt.Fprintf(b, "║ ПРАВИЛЬНЫЙ ПОРЯДОК: %s\n", strings.Join(v.CorrectOrder, ", "))
		fmt.Fprintf(b, "║ СТАТУС: %s\n", status(equal(user, v.CorrectOrder)))
	}
}

func writeChoice(b *strings.Builder, options []string, correct string, a quiz.Answer) {
	c, _ := a.(quiz.ChoiceAnswer)
	user := c.Selected
	if user == "" {
		user = noAns
	}
	fmt.Fprintf(b, "║ ВАРИАНТЫ: %s\n", strings.Join(options, ", "))
	fmt.Fprintf(b, "║ ВАШ ОТВЕТ: %s\n", user)
	fmt.Fprintf(b, "║ ПРАВИЛЬНЫЙ ОТВЕТ: %s\n", correct)
	fmt.Fprintf(b, "║ СТАТУС: %s\n", status(c.Selected == correct))
}

func sameSet(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	other := make(map[string]bool, len(b))
	for _, x := range b {
		if !set[x] {
			return false
		}
		other[x] = true
	}
	return len(set) == len(other)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
