package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gotweb/pkg/repo"
	"github.com/odvcencio/gotweb/pkg/resolve"
)

func newResolveCmd() *cobra.Command {
	var repoPath string
	var verify bool

	cmd := &cobra.Command{
		Use:   "resolve <url-path>",
		Short: "Resolve a browser URL path to a revision and in-tree path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(repoPath)
			if err != nil {
				return err
			}
			parser, err := resolve.ParserFor(r)
			if err != nil {
				return err
			}

			result, err := parser.Parse(args[0])
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("not found: %s", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "revision: %s\n", result.Revision.Name)
			fmt.Fprintf(out, "id:       %s\n", result.Revision.ID)
			fmt.Fprintf(out, "kind:     %s\n", result.Revision.Kind)
			if old := result.OldRevision; old != nil {
				if old.IsNull() {
					fmt.Fprintf(out, "old:      (root, no parent)\n")
				} else {
					fmt.Fprintf(out, "old:      %s (%s)\n", old.Name, old.ID)
				}
			}
			fmt.Fprintf(out, "path:     %s\n", result.Path)

			if verify {
				return reportSignature(cmd, r, result)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repoPath, "repo", ".", "path to the repository")
	cmd.Flags().BoolVar(&verify, "verify", false, "verify the resolved commit's SSH signature")
	return cmd
}

func reportSignature(cmd *cobra.Command, r *repo.Repo, result *resolve.Result) error {
	out := cmd.OutOrStdout()
	commit, err := r.Store.ReadCommit(result.Revision.ID)
	if err != nil {
		return fmt.Errorf("read commit %s: %w", result.Revision.ID, err)
	}

	pub, err := repo.VerifyCommitSignature(commit)
	if err != nil {
		if errors.Is(err, repo.ErrUnsignedCommit) {
			fmt.Fprintln(out, "signature: none")
			return nil
		}
		return err
	}
	fmt.Fprintf(out, "signature: good (%s)\n", pub.Type())
	return nil
}
