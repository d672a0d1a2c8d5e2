package prompt

import (
	"bytes"
	"context"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answering(answers ...string) (Asker, *[]string) {
	var messages []string
	return func(p survey.Prompt, response interface{}, _ ...survey.AskOpt) error {
		messages = append(messages, p.(*survey.Select).Message)
		*(response.(*string)) = answers[0]
		answers = answers[1:]
		return nil
	}, &messages
}

func conflict() conflicts.Conflict {
	return conflicts.Conflict{
		Tool:        types.ToolCodex,
		Destination: paths.Destination{Path: "/p/AGENTS.md", Section: "testing"},
		Exists:      true,
		Existing:    []byte("old\n"),
		Incoming:    []byte("new\n"),
		Owner:       "other",
	}
}

func TestTerminal_Ask(t *testing.T) {
	ask, messages := answering(choiceRename)
	var out bytes.Buffer
	term := &Terminal{Out: &out, AskOne: ask, ShowDiff: true}

	p, err := term.Ask(context.Background(), conflict())
	require.NoError(t, err)
	assert.Equal(t, conflicts.Rename, p)
	assert.Equal(t, "- old\n+ new\n", out.String())
	assert.Equal(t, []string{"/p/AGENTS.md#testing is owned by package other (codex)"}, *messages)
}

func TestTerminal_StickyAnswer(t *testing.T) {
	ask, messages := answering(choiceOverAll)
	term := &Terminal{AskOne: ask}

	for i := 0; i < 3; i++ {
		p, err := term.Ask(context.Background(), conflict())
		require.NoError(t, err)
		assert.Equal(t, conflicts.Overwrite, p)
	}
	assert.Len(t, *messages, 1)
}

func TestTerminal_Interrupt(t *testing.T) {
	term := &Terminal{AskOne: func(survey.Prompt, interface{}, ...survey.AskOpt) error {
		return terminal.InterruptErr
	}}
	_, err := term.Ask(context.Background(), conflict())
	assert.True(t, errors.IsErrorCode(err, errors.ErrAbort))
}

func TestTerminal_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ask, messages := answering(choiceSkip)
	_, err := (&Terminal{AskOne: ask}).Ask(ctx, conflict())
	assert.Error(t, err)
	assert.Empty(t, *messages)
}
