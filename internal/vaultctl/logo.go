package vaultctl

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/passvault/internal/filex"
	"github.com/dmitrijs2005/passvault/internal/netx"
	"github.com/spf13/cobra"
)

type logoUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func newUploadLogoCmd() *cobra.Command {
	var server, secret, id, file string

	cmd := &cobra.Command{
		Use:   "upload-logo",
		Short: "Upload an image as an entry's logo",
		Long: `Asks the vault API for a presigned upload URL for the entry, then PUTs
the image straight to object storage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, contentType, err := filex.ReadLogo(file, filex.MaxLogoSize)
			if err != nil {
				return err
			}

			endpoint := strings.TrimRight(server, "/") +
				"/api/v1/passwords/" + url.PathEscape(id) + "/logo?" +
				url.Values{"secret": {secret}}.Encode()

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
			s.Suffix = " Uploading logo..."
			s.Start()
			defer s.Stop()

			var up logoUpload
			if err := netx.PostJSON(ctx, httpClient, endpoint, nil, &up); err != nil {
				return fmt.Errorf("requesting upload URL: %w", err)
			}

			if err := netx.UploadToPresignedURL(ctx, httpClient, up.URL, contentType, data); err != nil {
				return err
			}
			s.Stop()

			printOK(cmd.OutOrStdout(), fmt.Sprintf("uploaded %d bytes as %s", len(data), up.Key))
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "vault API base URL")
	cmd.Flags().StringVar(&secret, "secret", "", "user secret")
	cmd.Flags().StringVar(&id, "id", "", "entry id")
	cmd.Flags().StringVar(&file, "file", "", "image file to upload")
	for _, name := range []string{"secret", "id", "file"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
