// Package memorycmder provides the memory command for viewing the
// append-only memory ledgers.
package memorycmder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	servecmder "github.com/neehanthreddym/ragbot/cmd/ragbot/serve"
	"github.com/neehanthreddym/ragbot/pkg/cliui"
	"github.com/neehanthreddym/ragbot/pkg/config"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
	ledgerfile "github.com/neehanthreddym/ragbot/pkg/memory/ledger/file"
)

const memoryLongDesc string = `View the contents of the memory ledgers.

Ledgers are append-only files of timestamped facts the memory gate has
saved from past conversations. The user ledger holds personal
preferences and role facts; the company ledger holds organizational
facts. Entries are shown oldest first.

Examples:
  ragbot memory
  ragbot memory user
  ragbot memory company`

const memoryShortDesc string = "View the memory ledgers"

var memoryFlagKeys = []string{
	config.FlagMemoryDir,
}

type memoryCommander struct {
	configDir string
	memoryDir string
}

func NewMemoryCmd() *cobra.Command {
	cmder := &memoryCommander{}

	cmd := &cobra.Command{
		Use:       "memory [user|company]",
		Short:     memoryShortDesc,
		Long:      memoryLongDesc,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(ledger.ScopeUser), string(ledger.ScopeCompany)},
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %w", err)
			}
			return cmder.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes := []ledger.Scope{ledger.ScopeUser, ledger.ScopeCompany}
			if len(args) == 1 {
				scope := ledger.Scope(args[0])
				if scope != ledger.ScopeUser && scope != ledger.ScopeCompany {
					return fmt.Errorf("unknown memory scope: %s", args[0])
				}
				scopes = []ledger.Scope{scope}
			}
			return cmder.run(cmd.Context(), scopes)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryDir, &cmder.memoryDir)

	return cmd
}

func (c *memoryCommander) resolve(cmd *cobra.Command) error {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, memoryFlagKeys)

	c.memoryDir = v.GetString("memory.dir")

	ragbotDir, err := servecmder.ResolveDotDir(c.configDir)
	if err != nil {
		return err
	}
	if !filepath.IsAbs(c.memoryDir) {
		c.memoryDir = filepath.Join(ragbotDir, c.memoryDir)
	}

	return nil
}

func (c *memoryCommander) run(ctx context.Context, scopes []ledger.Scope) error {
	fmt.Println()
	for _, scope := range scopes {
		if err := c.printLedger(ctx, scope); err != nil {
			return err
		}
	}
	return nil
}

func (c *memoryCommander) printLedger(ctx context.Context, scope ledger.Scope) error {
	store, err := ledgerfile.NewStore(filepath.Join(c.memoryDir, fmt.Sprintf("%s.log", scope)))
	if err != nil {
		return fmt.Errorf("opening %s ledger: %w", scope, err)
	}
	defer store.Close()

	entries, err := store.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading %s ledger: %w", scope, err)
	}

	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render(fmt.Sprintf("%s memory", scope)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d facts)", len(entries))),
	)

	if len(entries) == 0 {
		fmt.Printf("    %s\n\n", cliui.DimStyle.Render("(empty)"))
		return nil
	}

	for _, entry := range entries {
		fmt.Printf("    %s  %s\n",
			cliui.DimStyle.Render(entry.Timestamp.Format("2006-01-02 15:04")),
			cliui.ValueStyle.Render(entry.Fact),
		)
	}
	fmt.Println()

	return nil
}
