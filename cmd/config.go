package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nadav-o/sipurim/internal/config"
	"github.com/nadav-o/sipurim/internal/where"
)

func init() {
	configCmd.AddCommand(configInfoCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := lo.Keys(config.Default)
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s = %v\n", k, viper.Get(k))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if _, ok := config.Default[key]; !ok {
			return fmt.Errorf("unknown key %s", key)
		}

		viper.Set(key, value)
		path := filepath.Join(where.Config(), "sipurim.toml")
		if err := viper.WriteConfigAs(path); err != nil {
			return err
		}
		fmt.Printf("%s = %v\n", key, value)
		return nil
	},
}
