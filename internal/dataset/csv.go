package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xxxsen/mycontent/internal/model"
)

var ErrMissingColumn = errors.New("missing required column")

var clickArticleColumns = []string{"click_article_id", "article_id", "item_id"}

type csvTable struct {
	reader  *csv.Reader
	columns map[string]int
	header  []string
	line    int
}

func newCSVTable(r io.Reader) (*csvTable, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &csvTable{reader: reader, columns: make(map[string]int, len(header)), line: 1}
	t.header = make([]string, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		t.header[i] = name
		if _, ok := t.columns[name]; !ok {
			t.columns[name] = i
		}
	}
	return t, nil
}

func (t *csvTable) column(names ...string) (int, bool) {
	for _, name := range names {
		if idx, ok := t.columns[name]; ok {
			return idx, true
		}
	}
	return -1, false
}

func (t *csvTable) require(names ...string) (int, error) {
	idx, ok := t.column(names...)
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(names, "|"))
	}
	return idx, nil
}

// next returns the following record, or nil at EOF.
func (t *csvTable) next() ([]string, error) {
	rec, err := t.reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}
	t.line++
	return rec, nil
}

func (t *csvTable) int64At(rec []string, idx int, name string) (int64, error) {
	raw := strings.TrimSpace(rec[idx])
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// exports written by dataframes may render integer columns as 12.0
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("line %d: invalid %s %q", t.line, name, raw)
		}
		v = int64(f)
	}
	return v, nil
}

// ParseClicks reads a click log with a user_id column and one of
// click_article_id, article_id or item_id.
func ParseClicks(r io.Reader) ([]model.Click, error) {
	t, err := newCSVTable(r)
	if err != nil {
		return nil, err
	}
	userIdx, err := t.require("user_id")
	if err != nil {
		return nil, err
	}
	articleIdx, err := t.require(clickArticleColumns...)
	if err != nil {
		return nil, err
	}
	clicks := make([]model.Click, 0, 1024)
	for {
		rec, err := t.next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		uid, err := t.int64At(rec, userIdx, "user_id")
		if err != nil {
			return nil, err
		}
		aid, err := t.int64At(rec, articleIdx, t.header[articleIdx])
		if err != nil {
			return nil, err
		}
		clicks = append(clicks, model.Click{UserID: uid, ArticleID: aid})
	}
	return clicks, nil
}

// ParseArticles reads article metadata. Only article_id is required.
func ParseArticles(r io.Reader) ([]model.Article, error) {
	t, err := newCSVTable(r)
	if err != nil {
		return nil, err
	}
	idIdx, err := t.require("article_id")
	if err != nil {
		return nil, err
	}
	optional := []struct {
		name string
		set  func(a *model.Article, v int64)
	}{
		{"category_id", func(a *model.Article, v int64) { a.CategoryID = v }},
		{"publisher_id", func(a *model.Article, v int64) { a.PublisherID = v }},
		{"words_count", func(a *model.Article, v int64) { a.WordsCount = v }},
		{"created_at_ts", func(a *model.Article, v int64) { a.CreatedAtTs = v }},
	}
	articles := make([]model.Article, 0, 1024)
	for {
		rec, err := t.next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		id, err := t.int64At(rec, idIdx, "article_id")
		if err != nil {
			return nil, err
		}
		article := model.Article{ArticleID: id}
		for _, col := range optional {
			idx, ok := t.column(col.name)
			if !ok || strings.TrimSpace(rec[idx]) == "" {
				continue
			}
			v, err := t.int64At(rec, idx, col.name)
			if err != nil {
				return nil, err
			}
			col.set(&article, v)
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// ParseEmbeddings reads one vector per row. When the file has an article_id
// column every other named column is a vector component. Without it rows are
// matched positionally with articles, the way the embedding matrix is exported
// alongside the metadata file.
func ParseEmbeddings(r io.Reader, articles []model.Article) ([]int64, [][]float32, error) {
	t, err := newCSVTable(r)
	if err != nil {
		return nil, nil, err
	}
	idIdx, hasID := t.column("article_id")
	var components []int
	for i, name := range t.header {
		if i == idIdx || name == "" || name == "unnamed: 0" {
			continue
		}
		components = append(components, i)
	}
	if len(components) == 0 {
		return nil, nil, fmt.Errorf("%w: no embedding components", ErrMissingColumn)
	}
	var (
		ids     []int64
		vectors [][]float32
	)
	for row := 0; ; row++ {
		rec, err := t.next()
		if err != nil {
			return nil, nil, err
		}
		if rec == nil {
			break
		}
		var id int64
		if hasID {
			id, err = t.int64At(rec, idIdx, "article_id")
			if err != nil {
				return nil, nil, err
			}
		} else {
			if row >= len(articles) {
				return nil, nil, fmt.Errorf("line %d: embedding row has no matching article metadata", t.line)
			}
			id = articles[row].ArticleID
		}
		vec := make([]float32, len(components))
		for i, idx := range components {
			raw := strings.TrimSpace(rec[idx])
			v, err := strconv.ParseFloat(raw, 32)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, fmt.Errorf("line %d: invalid component %s %q", t.line, t.header[idx], raw)
			}
			vec[i] = float32(v)
		}
		ids = append(ids, id)
		vectors = append(vectors, vec)
	}
	if !hasID && len(ids) != len(articles) {
		return nil, nil, fmt.Errorf("embedding rows (%d) do not match article metadata rows (%d)", len(ids), len(articles))
	}
	return ids, vectors, nil
}
