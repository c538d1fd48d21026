package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gotweb/pkg/repo"
	"github.com/odvcencio/gotweb/pkg/resolve"
)

func newRefsCmd() *cobra.Command {
	var repoPath string
	var all bool

	cmd := &cobra.Command{
		Use:   "refs",
		Short: "List refs visible through the configured access policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(repoPath)
			if err != nil {
				return err
			}

			var access resolve.Access = resolve.AllowAll{}
			if !all {
				access, err = resolve.AccessFor(r)
				if err != nil {
					return err
				}
			}

			refs, err := r.ListRefs("")
			if err != nil {
				return err
			}

			names := make([]string, 0, len(refs))
			for name := range refs {
				if access.CanRead(name) {
					names = append(names, name)
				}
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s %s\n", refs[name], name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repoPath, "repo", ".", "path to the repository")
	cmd.Flags().BoolVar(&all, "all", false, "ignore hidden-ref configuration")
	return cmd
}
