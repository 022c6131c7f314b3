package main

import (
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/worktrack/internal/vault"
)

var (
	decryptOut   string
	decryptImage bool
)

func init() {
	decryptCmd.Flags().StringVarP(&decryptOut, "output", "o", "", "write to file instead of stdout")
	decryptCmd.Flags().BoolVar(&decryptImage, "image", false, "decode the file as an image and write it as PNG")
	rootCmd.AddCommand(decryptCmd)
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <file>",
	Short: "Decrypt a stat, record or status file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		v := openVault(cfg)

		var out io.Writer = os.Stdout
		if decryptOut != "" {
			f, err := os.OpenFile(decryptOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("open output: %w", err)
			}
			defer f.Close()
			out = f
		}

		if decryptImage {
			img, format, err := v.DecryptImage(args[0])
			if err != nil {
				return err
			}
			if err := png.Encode(out, img); err != nil {
				return fmt.Errorf("encode png: %w", err)
			}
			if decryptOut != "" {
				fmt.Fprintf(os.Stderr, "Wrote %s image as PNG to %s\n", format, decryptOut)
			}
			return nil
		}

		p, err := v.OpenFile(args[0])
		if err != nil {
			return err
		}
		if p.Format == vault.FormatLegacyPlaintext {
			fmt.Fprintln(os.Stderr, "Note: file is unencrypted legacy plaintext.")
		}
		_, err = out.Write(p.Data)
		return err
	},
}
