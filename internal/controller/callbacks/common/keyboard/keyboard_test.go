package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewModeration(t *testing.T) {
	kb := ReviewModeration(42)

	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "Опубликовать", row[0].Text)
	assert.Equal(t, "review_publish:42", row[0].CallbackData)
	assert.Equal(t, "Отклонить", row[1].Text)
	assert.Equal(t, "review_reject:42", row[1].CallbackData)
}

func TestBuilder_SkipsEmptyRows(t *testing.T) {
	kb := NewBuilder().Row().Row(Button("a", "b")).Build()

	assert.Len(t, kb.InlineKeyboard, 1)
	assert.Empty(t, Empty().InlineKeyboard)
}
