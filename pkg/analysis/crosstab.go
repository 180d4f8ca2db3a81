package analysis

import (
	"sort"

	"ustudiopd/eventlive/pkg/guideline/compiler"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

// DefaultMinCellCount is used when no guideline sets minCellCount.
const DefaultMinCellCount = 5

// DefaultPairs are cross-tabulated when no guideline pair resolves.
var DefaultPairs = [][2]roles.Role{
	{roles.Timeline, roles.FollowupIntent},
	{roles.ProjectType, roles.FollowupIntent},
	{roles.Timeline, roles.ProjectType},
	{roles.BudgetStatus, roles.Timeline},
	{roles.AuthorityLevel, roles.FollowupIntent},
	{roles.BudgetStatus, roles.AuthorityLevel},
	{roles.AuthorityLevel, roles.Timeline},
}

// Axis is one side of a crosstab. Options belonging to a group are counted
// under the group's label.
type Axis struct {
	Question survey.Question
	Role     roles.Role
	Groups   []compiler.Group
}

const groupKeyPrefix = "group:"

// category maps a selected option to its crosstab key and label.
func (a Axis) category(optionID string) (string, string) {
	for _, g := range a.Groups {
		for _, id := range g.OptionIDs {
			if id == optionID {
				return groupKeyPrefix + g.Label, g.Label
			}
		}
	}
	if o, ok := a.Question.OptionByID(optionID); ok {
		return o.ID, o.Text
	}
	return optionID, optionID
}

// rank orders categories the way the question lists its options.
func (a Axis) rank(key string) int {
	for i, o := range a.Question.Options {
		if k, _ := a.category(o.ID); k == key {
			return i
		}
	}
	return len(a.Question.Options)
}

// Crosstab counts submissions that answered both questions. A multi-select
// answer contributes its first choice only. Cells below minCellCount are
// flagged LowSample but kept.
func Crosstab(row, col Axis, idx survey.AnswerIndex, submissions []survey.Submission, minCellCount int) *CrosstabTable {
	t := &CrosstabTable{
		RowQuestionID: row.Question.ID,
		ColQuestionID: col.Question.ID,
		RowTitle:      row.Question.Body,
		ColTitle:      col.Question.Body,
		RowRole:       row.Role,
		ColRole:       col.Role,
		MinCellCount:  minCellCount,
	}

	rowTotals := make(map[string]int)
	colTotals := make(map[string]int)
	labels := make(map[string]string)
	type cellKey struct{ row, col string }
	counts := make(map[cellKey]int)

	for _, sub := range submissions {
		ra, ok := idx.Get(sub.ID, row.Question.ID)
		if !ok {
			continue
		}
		ca, ok := idx.Get(sub.ID, col.Question.ID)
		if !ok {
			continue
		}
		rid, ok := ra.FirstChoice()
		if !ok {
			continue
		}
		cid, ok := ca.FirstChoice()
		if !ok {
			continue
		}

		rk, rl := row.category(rid)
		ck, cl := col.category(cid)
		labels["r"+rk], labels["c"+ck] = rl, cl
		rowTotals[rk]++
		colTotals[ck]++
		counts[cellKey{rk, ck}]++
		t.GrandTotal++
	}

	t.Rows = categories(rowTotals, labels, "r", row)
	t.Cols = categories(colTotals, labels, "c", col)

	for _, r := range t.Rows {
		for _, c := range t.Cols {
			n := counts[cellKey{r.Key, c.Key}]
			if n == 0 {
				continue
			}
			t.Cells = append(t.Cells, newCell(r, c, n, t.GrandTotal, minCellCount))
		}
	}
	return t
}

func newCell(r, c Category, count, grand, minCellCount int) Cell {
	rowPct := float64(count) / float64(r.Total) * 100
	colPct := float64(count) / float64(c.Total) * 100
	base := float64(c.Total) / float64(grand) * 100
	return Cell{
		RowKey:    r.Key,
		ColKey:    c.Key,
		RowLabel:  r.Label,
		ColLabel:  c.Label,
		Count:     count,
		RowPct:    rowPct,
		ColPct:    colPct,
		Lift:      rowPct / base,
		LowSample: count < minCellCount,
	}
}

// categories orders by total, descending, then by option order.
func categories(totals map[string]int, labels map[string]string, prefix string, axis Axis) []Category {
	out := make([]Category, 0, len(totals))
	for k, n := range totals {
		out = append(out, Category{Key: k, Label: labels[prefix+k], Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		ri, rj := axis.rank(out[i].Key), axis.rank(out[j].Key)
		if ri != rj {
			return ri < rj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Trimmed returns a copy holding only the k largest rows and columns; zero
// keeps all. Totals and lift are not recomputed, so a trimmed table still
// describes the full sample. t is left unchanged.
func (t *CrosstabTable) Trimmed(rows, cols int) CrosstabTable {
	out := *t
	keepRows := keep(t.Rows, rows)
	keepCols := keep(t.Cols, cols)
	if rows > 0 && rows < len(t.Rows) {
		out.Rows = append([]Category(nil), t.Rows[:rows]...)
	}
	if cols > 0 && cols < len(t.Cols) {
		out.Cols = append([]Category(nil), t.Cols[:cols]...)
	}
	out.Cells = make([]Cell, 0, len(t.Cells))
	for _, c := range t.Cells {
		if keepRows[c.RowKey] && keepCols[c.ColKey] {
			out.Cells = append(out.Cells, c)
		}
	}
	return out
}

// Display returns the table trimmed to its own TopKRows and TopKCols.
func (t *CrosstabTable) Display() CrosstabTable {
	return t.Trimmed(t.TopKRows, t.TopKCols)
}

func keep(cats []Category, k int) map[string]bool {
	out := make(map[string]bool, len(cats))
	for i, c := range cats {
		if k <= 0 || i < k {
			out[c.Key] = true
		}
	}
	return out
}

// Cell returns the cell for a row and column key.
func (t *CrosstabTable) Cell(rowKey, colKey string) (Cell, bool) {
	for _, c := range t.Cells {
		if c.RowKey == rowKey && c.ColKey == colKey {
			return c, true
		}
	}
	return Cell{}, false
}

// SelectPairs returns the pairs to cross-tabulate: the compiled guideline's
// pairs (pinned, else its legacy plan) or, when none resolved, DefaultPairs
// placed on the first question of each role.
func SelectPairs(compiled *compiler.Compiled, questions []roles.QuestionWithRole) []compiler.Pair {
	if compiled != nil && len(compiled.Crosstabs) > 0 {
		return compiled.Crosstabs
	}

	var out []compiler.Pair
	for _, rp := range DefaultPairs {
		row, ok := firstChoiceWithRole(questions, rp[0])
		if !ok {
			continue
		}
		col, ok := firstChoiceWithRole(questions, rp[1])
		if !ok || row.ID == col.ID {
			continue
		}
		out = append(out, compiler.Pair{
			RowQuestionID: row.ID,
			ColQuestionID: col.ID,
			RowRole:       rp[0],
			ColRole:       rp[1],
			Source:        compiler.PairDefault,
		})
	}
	return out
}

func firstChoiceWithRole(qs []roles.QuestionWithRole, r roles.Role) (roles.QuestionWithRole, bool) {
	for _, q := range qs {
		if q.Role == r && q.Type.IsChoice() {
			return q, true
		}
	}
	return roles.QuestionWithRole{}, false
}
