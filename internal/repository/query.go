package repository

import (
	"fmt"
	"strings"
)

// whereBuilder собирает WHERE с позиционными параметрами
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// arg добавляет параметр и возвращает его плейсхолдер
func (w *whereBuilder) arg(v interface{}) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// add добавляет условие; %s в cond заменяется плейсхолдером
func (w *whereBuilder) add(cond string, v interface{}) {
	w.conds = append(w.conds, fmt.Sprintf(cond, w.arg(v)))
}

func (w *whereBuilder) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// setBuilder собирает SET для частичного обновления
type setBuilder struct {
	sets []string
	args []interface{}
}

func (s *setBuilder) set(column string, v interface{}) {
	s.args = append(s.args, v)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setBuilder) raw(expr string) {
	s.sets = append(s.sets, expr)
}

func (s *setBuilder) empty() bool {
	return len(s.sets) == 0
}

func (s *setBuilder) sql() string {
	return "SET " + strings.Join(s.sets, ", ")
}

// next возвращает плейсхолдер следующего параметра
func (s *setBuilder) next(v interface{}) string {
	s.args = append(s.args, v)
	return fmt.Sprintf("$%d", len(s.args))
}
