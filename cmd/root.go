package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "onlearn-auth",
	Short: "ON-LEARN authentication service",
	Long:  `Registration, OTP email verification, cookie based JWT sessions and user administration for the ON-LEARN platform.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
