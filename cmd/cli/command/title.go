package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"yamdb/cmd/cli/command/client"
	"yamdb/internal/microservices/http-api/dto"
)

var titleCmd = &cobra.Command{
	Use:   "title",
	Short: "Browse titles",
}

var titleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List titles, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		var f client.TitleFilter
		f.Name, _ = cmd.Flags().GetString("name")
		f.Year, _ = cmd.Flags().GetInt("year")
		f.Genre, _ = cmd.Flags().GetString("genre")
		f.Category, _ = cmd.Flags().GetString("category")
		f.Limit, _ = cmd.Flags().GetInt("limit")
		f.Offset, _ = cmd.Flags().GetInt("offset")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		page, err := apiClient().ListTitles(ctx, f)
		if err != nil {
			return err
		}
		if len(page.Results) == 0 {
			fmt.Println(warn("No titles found."))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, bold("ID\tNAME\tYEAR\tRATING\tCATEGORY\tGENRES"))
		for _, t := range page.Results {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Year, formatRating(t.Rating), categoryName(t), genreSlugs(t))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("Showing %d of %d\n", len(page.Results), page.Count)
		return nil
	},
}

var titleShowCmd = &cobra.Command{
	Use:   "show <title-id>",
	Short: "Show one title with its latest reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		c := apiClient()
		t, err := c.GetTitle(ctx, id)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%d)\n", bold(t.Name), t.Year)
		fmt.Printf("Rating:   %s\n", formatRating(t.Rating))
		fmt.Printf("Category: %s\n", categoryName(*t))
		fmt.Printf("Genres:   %s\n", genreSlugs(*t))
		if t.Description != nil && *t.Description != "" {
			fmt.Printf("\n%s\n", *t.Description)
		}

		reviews, err := c.ListReviews(ctx, id, 5, 0)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s (%d)\n", bold("Reviews"), reviews.Count)
		for _, r := range reviews.Results {
			fmt.Printf("  [%d/10] %s: %s\n", r.Score, r.Author, r.Text)
		}
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <title-id>",
	Short: "Post a review for a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var req dto.CreateReviewDTO
		req.Score, _ = cmd.Flags().GetInt("score")
		req.Text, _ = cmd.Flags().GetString("text")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		r, err := apiClient().CreateReview(ctx, id, req)
		if err != nil {
			return err
		}
		fmt.Println(success(fmt.Sprintf("✓ Review #%d posted", r.ID)))
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

func categoryName(t dto.TitleResponse) string {
	if t.Category == nil {
		return "-"
	}
	return t.Category.Name
}

func genreSlugs(t dto.TitleResponse) string {
	if len(t.Genre) == 0 {
		return "-"
	}
	slugs := make([]string, 0, len(t.Genre))
	for _, g := range t.Genre {
		slugs = append(slugs, g.Slug)
	}
	return strings.Join(slugs, ",")
}

func init() {
	rootCmd.AddCommand(titleCmd, reviewCmd)
	titleCmd.AddCommand(titleListCmd, titleShowCmd)

	titleListCmd.Flags().String("name", "", "Filter by name substring")
	titleListCmd.Flags().Int("year", 0, "Filter by release year")
	titleListCmd.Flags().String("genre", "", "Filter by genre slug")
	titleListCmd.Flags().String("category", "", "Filter by category slug")
	titleListCmd.Flags().Int("limit", 0, "Page size (server default when 0)")
	titleListCmd.Flags().Int("offset", 0, "Page offset")

	reviewCmd.Flags().IntP("score", "s", 0, "Score from 1 to 10")
	reviewCmd.Flags().StringP("text", "t", "", "Review text")
	_ = reviewCmd.MarkFlagRequired("score")
	_ = reviewCmd.MarkFlagRequired("text")
}
