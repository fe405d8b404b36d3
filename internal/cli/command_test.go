package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteDispatchesWithFlags(t *testing.T) {
	var source string
	var received []string

	root := &Command{
		Name: "ticketdesk",
		Subcommands: []*Command{
			{
				Name: "queue",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("queue", pflag.ContinueOnError)
					fs.StringVar(&source, "source", "inquiry", "queue source")
					return fs
				},
				Run: func(args []string) error {
					received = args
					return nil
				},
			},
		},
	}

	require.NoError(t, root.execute([]string{"queue", "--source", "report", "extra"}, &bytes.Buffer{}))
	assert.Equal(t, "report", source)
	assert.Equal(t, []string{"extra"}, received)
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name:        "ticketdesk",
		Subcommands: []*Command{{Name: "feed", Run: func([]string) error { return nil }}},
	}

	err := root.execute([]string{"fed"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "feed"`)
}

func TestExecuteSuggestsFlag(t *testing.T) {
	cmd := &Command{
		Name: "answer",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("answer", pflag.ContinueOnError)
			fs.String("text", "", "answer text")
			return fs
		},
		Run: func([]string) error { return nil },
	}

	err := cmd.execute([]string{"--txt", "hi"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean --text")
}

func TestExecuteHelpAndMissingSubcommand(t *testing.T) {
	root := &Command{
		Name:    "ticketdesk",
		Summary: "Support desk client",
		Subcommands: []*Command{
			{Name: "feed", Summary: "List your tickets", Run: func([]string) error { return nil }},
		},
	}

	var out bytes.Buffer
	require.NoError(t, root.execute([]string{"--help"}, &out))
	assert.Contains(t, out.String(), "feed")
	assert.Contains(t, out.String(), "List your tickets")

	out.Reset()
	assert.Error(t, root.execute(nil, &out))
	assert.Contains(t, out.String(), "Usage:")
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("feed", "feed"))
	assert.Equal(t, 1, levenshtein("fed", "feed"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
