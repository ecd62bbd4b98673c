package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RxRoster/rxroster/storage"
)

var errNoSnapshot = errors.New("no snapshot stored for account")

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <account-id>",
	Short: "Print the persisted member profiles of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		kv, closeKV := openKV(cfg)
		defer closeKV()

		return printSnapshot(cmd, storage.NewAdapter(kv), args[0])
	},
}

func printSnapshot(cmd *cobra.Command, adapter *storage.Adapter, accountID string) error {
	snap, ok := adapter.Load(accountID)
	if !ok {
		return fmt.Errorf("%w: %s", errNoSnapshot, accountID)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
