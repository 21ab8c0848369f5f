package evaluation

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashwinyue/next-eval/internal/catalog"
	"github.com/ashwinyue/next-eval/internal/model"
	"github.com/ashwinyue/next-eval/internal/monitoring"
	"github.com/ashwinyue/next-eval/internal/repository"
	"github.com/ashwinyue/next-eval/internal/service/backup"
	"github.com/ashwinyue/next-eval/internal/service/report"
	"github.com/ashwinyue/next-eval/internal/testutil"
)

type fixture struct {
	svc         *Service
	repo        *repository.JSONAnswerRepository
	backups     *backup.LocalStorage
	answersPath string
}

func newFixture(t *testing.T, withBackups bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	answersPath := filepath.Join(dir, "answers.json")

	repo, err := repository.NewJSONAnswerRepository(answersPath)
	if err != nil {
		t.Fatalf("NewJSONAnswerRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	data := &catalog.Data{
		Catalog:  testutil.Catalog(),
		Registry: testutil.Registry(),
		Rubric:   testutil.Rubric(),
	}

	f := &fixture{repo: repo, answersPath: answersPath}
	opts := Options{
		Metrics:   monitoring.New(),
		DataFiles: DefaultDataFiles(filepath.Join(dir, "questions.json"), filepath.Join(dir, "models.json"), answersPath, ""),
	}
	if withBackups {
		f.backups, err = backup.NewLocalStorage(filepath.Join(dir, "backups"))
		if err != nil {
			t.Fatalf("NewLocalStorage: %v", err)
		}
		opts.Backups = f.backups
	}
	f.svc = NewService(repo, data, opts)
	return f
}

func TestSaveAnswer_ValidatesKeys(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	tests := []struct {
		name       string
		questionID int
		modelID    string
		answer     string
	}{
		{name: "unknown question", questionID: 99, modelID: "gpt", answer: "x"},
		{name: "unknown model", questionID: 1, modelID: "llama", answer: "x"},
		{name: "blank answer", questionID: 1, modelID: "gpt", answer: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SaveAnswer(ctx, tt.questionID, tt.modelID, tt.answer)
			testutil.NewAssertHelper(t).ErrorIs(err, model.ErrValidation)
		})
	}

	answers, err := f.repo.ListAnswers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 0 {
		t.Errorf("rejected saves must not create records, got %d", len(answers))
	}
}

func TestSaveScore(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.SaveScore(ctx, 1, "gpt", 4, nil)
	assert.ErrorIs(err, model.ErrRecordNotFound)

	_, err = f.svc.SaveAnswer(ctx, 1, "gpt", "2")
	assert.NoError(err)

	_, err = f.svc.SaveScore(ctx, 1, "gpt", 6, nil)
	assert.ErrorIs(err, model.ErrValidation)

	rec, err := f.svc.SaveScore(ctx, 1, "gpt", 4, testutil.StrPtr("ok"))
	assert.NoError(err)
	assert.Equal(4, *rec.Score)
	assert.NotNil(rec.ScoredAt)

	scores, err := f.svc.GetModelScores(ctx, "gpt")
	assert.NoError(err)
	assert.Equal(map[int]int{1: 4}, scores)

	_, err = f.svc.GetModelScores(ctx, "nope")
	assert.ErrorIs(err, model.ErrValidation)
}

func TestQuestionsByDimension(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, false)

	all, err := f.svc.QuestionsByDimension("")
	assert.NoError(err)
	assert.Equal(6, len(all))

	coding, err := f.svc.QuestionsByDimension(model.DimensionCoding)
	assert.NoError(err)
	assert.Equal(2, len(coding))
	assert.Equal(3, coding[0].ID)
	assert.Equal(4, coding[1].ID)

	_, err = f.svc.QuestionsByDimension("unknown")
	assert.ErrorIs(err, model.ErrValidation)
}

func TestQuestion(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, false)

	detail, err := f.svc.Question(1)
	assert.NoError(err)
	assert.Equal("逻辑推理与数学", detail.DimensionName)
	assert.True(len(detail.ScoringCriteria) > 0)

	detail, err = f.svc.Question(3)
	assert.NoError(err)
	assert.Nil(detail.ScoringCriteria)

	_, err = f.svc.Question(42)
	assert.ErrorIs(err, model.ErrRecordNotFound)
}

func TestReports(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, false)
	ctx := context.Background()

	for _, mid := range []string{"gpt", "claude"} {
		_, err := f.svc.SaveAnswer(ctx, 1, mid, "answer from "+mid)
		assert.NoError(err)
	}
	_, err := f.svc.SaveScore(ctx, 1, "gpt", 5, nil)
	assert.NoError(err)
	_, err = f.svc.SaveScore(ctx, 1, "claude", 3, nil)
	assert.NoError(err)

	board, err := f.svc.Leaderboard(ctx)
	assert.NoError(err)
	assert.Equal(2, len(board))
	assert.Equal("gpt", board[0].ModelID)
	assert.Equal(100.0, board[0].Percentage)
	assert.Equal(60.0, board[1].Percentage)

	stats, err := f.svc.Stats(ctx)
	assert.NoError(err)
	assert.Equal(2, stats.TotalAnswers)
	assert.Equal(2, stats.ScoredCount)

	cmp, err := f.svc.CompareQuestion(ctx, 1)
	assert.NoError(err)
	assert.Equal("gpt", cmp.Answers[0].ModelID)

	_, err = f.svc.CompareQuestion(ctx, 99)
	assert.ErrorIs(err, model.ErrRecordNotFound)

	summary, err := f.svc.ModelSummary(ctx, "claude", report.FilterScored)
	assert.NoError(err)
	assert.Equal(1, len(summary.Questions))
	assert.Equal(3, summary.TotalScore)

	_, err = f.svc.ModelSummary(ctx, "nope", report.FilterAll)
	assert.ErrorIs(err, model.ErrRecordNotFound)
}

func TestExportCSV(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.SaveAnswer(ctx, 1, "gpt", "a")
	assert.NoError(err)
	_, err = f.svc.SaveAnswer(ctx, 2, "gpt", "b")
	assert.NoError(err)
	_, err = f.svc.SaveScore(ctx, 1, "gpt", 5, testutil.StrPtr("good, concise"))
	assert.NoError(err)

	var buf bytes.Buffer
	assert.NoError(f.svc.ExportCSV(ctx, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(err)
	assert.Equal(3, len(rows))
	assert.Equal(csvHeader, rows[0])
	assert.Equal([]string{"1", "gpt", "5", "good, concise"}, rows[1][:4])
	assert.Equal([]string{"2", "gpt", "", ""}, rows[2][:4])

	// 时间戳保留小数秒，与 JSON 导出一致
	stored, err := f.svc.GetAnswer(ctx, 1, "gpt")
	assert.NoError(err)
	exported, err := time.Parse(time.RFC3339Nano, rows[1][4])
	assert.NoError(err)
	assert.True(exported.Equal(stored.Timestamp.Time), rows[1][4])
}

func TestExportJSON(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.SaveAnswer(ctx, 1, "gpt", "<b>a</b>")
	assert.NoError(err)

	var buf bytes.Buffer
	assert.NoError(f.svc.ExportJSON(ctx, &buf))

	var doc model.Document
	assert.NoError(json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(model.DefaultStoreTitle, doc.Meta.Title)
	assert.Equal(1, len(doc.Answers))
	assert.Equal("<b>a</b>", doc.Answers[0].Answer)
	assert.True(bytes.Contains(buf.Bytes(), []byte("<b>a</b>")))
}

func TestClearWithBackups(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SaveAnswer(ctx, 1, "gpt", "a")
	assert.NoError(err)
	_, err = f.svc.SaveScore(ctx, 1, "gpt", 2, nil)
	assert.NoError(err)

	name, err := f.svc.ClearAllScores(ctx)
	assert.NoError(err)
	assert.True(name != "")

	rec, err := f.svc.GetAnswer(ctx, 1, "gpt")
	assert.NoError(err)
	assert.Equal("a", rec.Answer)
	assert.Nil(rec.Score)

	name2, err := f.svc.ClearAllAnswers(ctx)
	assert.NoError(err)
	assert.True(name2 != name)

	rec, err = f.svc.GetAnswer(ctx, 1, "gpt")
	assert.NoError(err)
	assert.Nil(rec)

	objects, err := f.svc.ListBackups(ctx)
	assert.NoError(err)
	assert.Equal(2, len(objects))

	// 清空评分前的快照仍保留分数
	rc, err := f.backups.Get(ctx, name)
	assert.NoError(err)
	defer rc.Close()
	var snap model.Document
	assert.NoError(json.NewDecoder(rc).Decode(&snap))
	assert.Equal(1, len(snap.Answers))
	assert.Equal(2, *snap.Answers[0].Score)
}

func TestBackupDisabled(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, false)
	ctx := context.Background()

	assert.False(f.svc.BackupsEnabled())
	_, err := f.svc.Backup(ctx, ReasonManual)
	assert.ErrorIs(err, model.ErrValidation)

	name, err := f.svc.ClearAllAnswers(ctx)
	assert.NoError(err)
	assert.Equal("", name)
}

func TestFileStatus(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	f := newFixture(t, false)

	statuses := f.svc.FileStatus()
	assert.Equal(3, len(statuses))
	assert.Equal("questions.json", statuses[0].Name)
	assert.False(statuses[0].Exists)
	assert.Equal("answers.json", statuses[2].Name)
	assert.True(statuses[2].Exists)
	assert.True(statuses[2].Size > 0)
}
