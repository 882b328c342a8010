package protocol

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/report"
	"github.com/mind-engage/fapquiz/internal/session"
	"github.com/mind-engage/fapquiz/internal/storage"
)

var t0 = time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{1400 * time.Millisecond, "00:01"},
		{2500 * time.Millisecond, "00:02"},
		{3500 * time.Millisecond, "00:04"},
		{125 * time.Second, "02:05"},
		{100 * time.Minute, "100:00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatDuration(tc.in), tc.in.String())
	}
}

func TestNames(t *testing.T) {
	id := report.Identity{LastName: "Иванов", FirstName: "Петр"}
	assert.Equal(t, "Иванов_Петр_01_03_2024_10_05", FolderName(id, t0))
	assert.Equal(t, "Протокол_тестирования_Иванов_Петр.txt", MainFileName(id))
	assert.Equal(t, "Детальная_статистика_Иванов_Петр.txt", DetailedFileName(id))
	assert.Equal(t, "a_b_unknown_01_03_2024_10_05", FolderName(report.Identity{LastName: "a/b"}, t0))
}

func finished(t *testing.T) report.Summary {
	t.Helper()
	h := func(id int, v quiz.Variant) quiz.Header {
		return quiz.Header{ID: id, Type: v, Question: "Вопрос " + string(v), Category: "Высоты"}
	}
	qs := []quiz.Question{
		quiz.SingleChoice{Header: h(1, quiz.VariantSingleChoice), Options: []string{"300", "1000"}, Correct: "1000"},
		quiz.MultipleChoice{Header: h(2, quiz.VariantMultipleChoice), Options: []string{"a", "b", "c"}, Correct: []string{"a", "b"}},
		quiz.Matching{Header: h(3, quiz.VariantMatching),
			LeftColumn: []string{"VFR", "IFR"}, RightColumn: []string{"visual", "instrument"},
			CorrectMapping: map[string]string{"VFR": "visual", "IFR": "instrument"}},
		quiz.Ordering{Header: h(4, quiz.VariantOrdering), Items: []string{"A", "B", "C"}, CorrectOrder: []string{"A", "B", "C"}},
	}
	s := session.New(nil)
	require.NoError(t, s.Start(qs, t0))
	keys := s.Keys()
	require.NoError(t, s.SubmitAnswer(keys[0], quiz.ChoiceAnswer{Selected: "1000"}))
	require.NoError(t, s.SubmitAnswer(keys[1], quiz.SelectionAnswer{Selected: []string{"a"}}))
	require.NoError(t, s.SubmitAnswer(keys[2], quiz.MappingAnswer{"VFR": "visual"}))
	require.NoError(t, s.SubmitAnswer(keys[3], quiz.OrderingAnswer{
		DisplayOrder: []string{"C", "A", "B"}, Positions: []int{3, 1, 2},
	}))
	require.NoError(t, s.Navigate(session.Next, t0.Add(65*time.Second)))
	require.NoError(t, s.Finish(t0.Add(80*time.Second)))

	sum, err := report.Build(s, report.Identity{
		LastName: "Иванов", FirstName: "Петр", MiddleName: "Сергеевич",
		Position: "КВС", LoginTime: t0,
	}, report.Meta{ThemeID: "fap297", ThemeName: "ФАП 297", GeneratedAt: t0.Add(80 * time.Second)})
	require.NoError(t, err)
	return sum
}

func TestRenderMain(t *testing.T) {
	sum := finished(t)
	out := RenderMain(sum)
	for _, want := range []string{
		"ПРОТОКОЛ ТЕСТИРОВАНИЯ",
		"ФИО: Иванов Петр Сергеевич",
		"Должность: КВС",
		"Тема: ФАП 297",
		"Категория: Все категории",
		"Количество вопросов: 4",
		"Набрано баллов: 3.00 из 4",
		"Процент выполнения: 75.0%",
		"Общее время: 01:20",
		"Среднее время на вопрос: 00:20",
		"ХОРОШО",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderDetailed(t *testing.T) {
	out := RenderDetailed(finished(t))
	for _, want := range []string{
		"Вопрос 1:",
		"║ ВАШ ОТВЕТ: 1000",
		"║ СТАТУС: ✅ ВЕРНО",
		"║ ВАШИ ОТВЕТЫ: a",
		"⚠️ ЧАСТИЧНО ВЕРНО",
		"• VFR: visual → visual (✅ ВЕРНО)",
		"• IFR: Нет ответа → instrument (❌ НЕВЕРНО)",
		"║ ВАШ ПОРЯДОК: A, B, C",
		"║ Время: 01:05",
		"Статистика сгенерирована автоматически",
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 4, strings.Count(out, "╔"))
}

func TestRenderDetailedUnspecifiedCategory(t *testing.T) {
	sum := finished(t)
	sum.Details[0].Category = report.Unspecified
	out := RenderDetailed(sum)
	assert.Contains(t, out, "║ Категория: Не указана")
	assert.NotContains(t, out, report.Unspecified)
	assert.Contains(t, out, "║ Категория: Высоты")
}

func TestSinkPublish(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFSStore(afero.NewMemMapFs(), "protocols")
	require.NoError(t, err)
	sum := finished(t)

	files, err := NewSink(store, nil).Publish(ctx, sum)
	require.NoError(t, err)
	assert.Equal(t, "Иванов_Петр_01_03_2024_10_06", files.Folder)
	assert.Equal(t, files.Folder+"/Протокол_тестирования_Иванов_Петр.txt", files.Main)

	rc, err := store.Get(ctx, files.Detailed)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, RenderDetailed(sum), string(b))
}

func TestSinkPublishNamesakesInSameMinute(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFSStore(afero.NewMemMapFs(), "protocols")
	require.NoError(t, err)
	sink := NewSink(store, nil)

	a := finished(t)
	a.Meta.AttemptID = "0f8fad5b-d9cb-469f-a165-70867728950e"
	a.Meta.Run = 1
	b := finished(t)
	b.Identity.Position = "Стажер"
	b.FinishedAt = a.FinishedAt.Add(35 * time.Second)
	b.Meta.AttemptID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	b.Meta.Run = 1

	fa, err := sink.Publish(ctx, a)
	require.NoError(t, err)
	fb, err := sink.Publish(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "Иванов_Петр_01_03_2024_10_06_0f8fad5b", fa.Folder)
	assert.NotEqual(t, fa.Main, fb.Main)
	assert.NotEqual(t, fa.Detailed, fb.Detailed)

	rc, err := store.Get(ctx, fa.Main)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Должность: КВС")
	assert.NotContains(t, string(body), "Стажер")

	// A restarted attempt finishing in the same minute keeps the first run.
	again := a
	again.Meta.Run = 2
	fr, err := sink.Publish(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, fa.Folder+"_r2", fr.Folder)
	assert.NotEqual(t, fa.Main, fr.Main)
}
