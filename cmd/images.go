package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/herobanner/internal/adminapi"
	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/preview"
	"github.com/lehigh-university-libraries/herobanner/internal/slots"
)

func newImagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "List, upload, replace or delete hero images from scripts",
	}

	cmd.AddCommand(newImagesListCmd(a))
	cmd.AddCommand(newImagesUploadCmd(a))
	cmd.AddCommand(newImagesReplaceCmd(a))
	cmd.AddCommand(newImagesDeleteCmd(a))

	return cmd
}

// withController runs fn against a refreshed controller and cleans up after it.
func withController(ctx context.Context, a *app, fn func(*slots.Controller) error) error {
	previews, err := preview.NewStore(a.cfg.Slots.PreviewDir)
	if err != nil {
		return err
	}
	defer previews.Close()

	client := adminapi.NewClient(a.cfg.API.URL, a.cfg.API.Token, a.cfg.API.Timeout)
	ctrl := slots.New(client, previews, a.cfg.Slots.LabelPrefix)
	defer ctrl.Close()

	if err := ctrl.Refresh(ctx, false); err != nil {
		return fmt.Errorf("failed to load hero images: %s", slots.Message(err))
	}
	return fn(ctrl)
}

func newImagesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the hero images in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), a, func(ctrl *slots.Controller) error {
				printImages(cmd.OutOrStdout(), ctrl.Snapshot().Images)
				return nil
			})
		},
	}
}

func newImagesUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE|URL",
		Short: "Add an image in a new slot",
		Args:  cobra.ExactArgs(1),
		Example: `  herobanner images upload ./spring-campus.jpg
  herobanner images upload https://example.edu/photos/commencement.webp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := adminapi.NewFetcher().Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return withController(cmd.Context(), a, func(ctrl *slots.Controller) error {
				if !ctrl.BeginNewSlot() {
					return fmt.Errorf("all slots are in use, replace or delete an image first")
				}
				if err := ctrl.SelectFile(f); err != nil {
					return errors.New(slots.Message(err))
				}
				if err := ctrl.CommitNewSlot(cmd.Context()); err != nil {
					return errors.New(slots.Message(err))
				}
				st := ctrl.Snapshot()
				if img, ok := st.ActiveImage(); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Uploaded slot %d: %s\n", st.ActiveIndex+1, img.URL)
				}
				return nil
			})
		},
	}
}

func newImagesReplaceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "replace SLOT FILE|URL",
		Short:   "Replace the image in a slot (1-based)",
		Args:    cobra.ExactArgs(2),
		Example: `  herobanner images replace 2 ./fall-library.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			f, err := adminapi.NewFetcher().Open(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return withController(cmd.Context(), a, func(ctrl *slots.Controller) error {
				if err := selectExisting(ctrl, slot); err != nil {
					return err
				}
				if err := ctrl.SelectFile(f); err != nil {
					return errors.New(slots.Message(err))
				}
				if err := ctrl.CommitReplace(cmd.Context()); err != nil {
					return errors.New(slots.Message(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced slot %d with %s\n", slot, f.Name)
				return nil
			})
		},
	}
}

func newImagesDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete SLOT",
		Short: "Delete the image in a slot (1-based)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			return withController(cmd.Context(), a, func(ctrl *slots.Controller) error {
				if err := selectExisting(ctrl, slot); err != nil {
					return err
				}
				if !ctrl.Snapshot().CanDelete {
					return errors.New("at least one hero image must remain")
				}

				confirm := func(models.ImageRecord) bool { return true }
				if !yes {
					confirm = promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
				}
				deleted, err := ctrl.DeleteActive(cmd.Context(), confirm)
				if err != nil {
					return errors.New(slots.Message(err))
				}
				if deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted slot %d\n", slot)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing deleted")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")

	return cmd
}

func parseSlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid slot %q, slots start at 1", s)
	}
	return n, nil
}

func selectExisting(ctrl *slots.Controller, slot int) error {
	n := len(ctrl.Snapshot().Images)
	if slot > n {
		return fmt.Errorf("slot %d does not exist, there are %d images", slot, n)
	}
	return ctrl.SelectSlot(slot - 1)
}

func promptConfirm(in io.Reader, out io.Writer) slots.Confirm {
	return func(img models.ImageRecord) bool {
		name := img.Alt
		if name == "" {
			name = img.URL
		}
		fmt.Fprintf(out, "Delete %q? [y/N] ", name)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func printImages(w io.Writer, images []models.ImageRecord) {
	if len(images) == 0 {
		fmt.Fprintln(w, "No hero images")
		return
	}
	for i, img := range images {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, img.ID, img.Alt, img.URL)
	}
}
