package cli

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var keysDir string

func init() {
	rootCommand.AddCommand(genkeyCommand)
	genkeyCommand.Flags().StringVarP(&keysDir, "dir", "d", "keys", "Folder the key is written into.")
}

var genkeyCommand = &cobra.Command{
	Use:   "genkey",
	Short: "generates a token signing key",
	Long: `Generate an rsa private key named <kid>.pem, the kid is what the service
expects as ROSTER_AUTH_ACTIVE_KID.

Examples:
  admin genkey --dir=/etc/rsa-keys`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kid, err := genKey(keysDir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "key generated, kid=%s\n", kid)
		return nil
	},
}

func genKey(dir string) (string, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", fmt.Errorf("generateKey: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("marshalPKCS8PrivateKey: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdirAll: %w", err)
	}

	kid := uuid.NewString()

	file, err := os.OpenFile(filepath.Join(dir, kid+".pem"), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("openFile: %w", err)
	}
	defer file.Close()

	if err := pem.Encode(file, &pem.Block{Type: "PRIVATE KEY", Bytes: der}); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	return kid, nil
}
