package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/savezy/savezy/pkg/cache"
	"github.com/savezy/savezy/pkg/contents"
	"github.com/spf13/cobra"
)

var contentsCmd = &cobra.Command{
	Use:     "contents",
	Aliases: []string{"c"},
	Short:   "Manage saved items",
	Long:    `Create, list, get, update and delete saved videos, memes, news, websites, images and directions.`,
}

var contentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Save a new item",
	Long: `Saves a new item. Each kind requires one field:

  Video, News, Website  --url
  Meme, Image           --image-url
  Direction             --directions`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		kind, err := contents.ParseKind(typ)
		if err != nil {
			return err
		}
		p := patchFromFlags(cmd)

		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		created, err := c.Create(cmd.Context(), p.Apply(contents.Record{Kind: kind}))
		if err != nil {
			return err
		}
		return printRecord(cmd, created)
	},
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved items, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		items := c.Filter(f)
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No items found.")
			return nil
		}
		return printRecords(cmd, items)
	},
}

var contentGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one saved item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		r, ok := c.Get(id)
		if !ok {
			return cache.ErrItemNotFound
		}
		return printRecord(cmd, r)
	},
}

var contentUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change fields of a saved item",
	Long:  `Updates only the fields given as flags. The kind of an item never changes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p := patchFromFlags(cmd)
		if p.Empty() {
			fmt.Fprintln(cmd.OutOrStdout(), "No update fields provided.")
			return nil
		}

		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		updated, err := c.Update(cmd.Context(), id, p)
		if err != nil {
			return err
		}
		return printRecord(cmd, updated)
	},
}

var contentFavoriteCmd = &cobra.Command{
	Use:   "favorite [id]",
	Short: "Mark an item as favorite (or unmark it with --off)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		off, _ := cmd.Flags().GetBool("off")
		fav := !off

		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		updated, err := c.Update(cmd.Context(), id, contents.Patch{Favorite: &fav})
		if err != nil {
			return err
		}
		return printRecord(cmd, updated)
	},
}

var contentDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved item",
	Long: `Deletes an item. Deleting an id that does not exist is not an error.

With --undo, the item is kept for the given duration and pressing Enter
restores it (under a new id).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		window, _ := cmd.Flags().GetDuration("undo")

		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		out := cmd.OutOrStdout()
		if window <= 0 {
			if err := c.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Item %d deleted.\n", id)
			return nil
		}

		undo, err := c.DeleteWithUndo(cmd.Context(), id, window)
		if err != nil {
			return err
		}
		return offerUndo(cmd.Context(), undo, cmd.InOrStdin(), out)
	},
}

var contentCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the categories in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		for _, cat := range c.Categories() {
			fmt.Fprintln(cmd.OutOrStdout(), cat)
		}
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags in use, most used first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		tags := c.Tags()
		if len(tags) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tags found.")
			return nil
		}
		for _, t := range tags {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d\n", t.Tag, t.Count)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search saved items by text",
	Long:  `Case-insensitive search over url, title, description, summary, comment and directions.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		f.Query = strings.Join(args, " ")

		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		items := c.Filter(f)
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No items found.")
			return nil
		}
		return printRecords(cmd, items)
	},
}

// offerUndo waits for Enter until the undo window closes. The goroutine reading
// in stays blocked until in yields a line, an error or EOF, so callers that
// outlive the window should pass a reader they can close.
func offerUndo(ctx context.Context, undo *cache.Undo, in io.Reader, out io.Writer) error {
	rec := undo.Record()
	fmt.Fprintf(out, "Item %d deleted. Press Enter within %s to undo.\n", rec.ID, undo.Remaining().Round(time.Second))

	pressed := make(chan struct{})
	go func() {
		if _, err := bufio.NewReader(in).ReadString('\n'); err == nil {
			close(pressed)
		}
	}()

	timer := time.NewTimer(undo.Remaining())
	defer timer.Stop()

	select {
	case <-pressed:
		restored, err := undo.Restore(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Item restored as %d.\n", restored.ID)
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item id %q: must be a positive integer", s)
	}
	return id, nil
}

func addRecordFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("url", "", "Link to the item")
	f.StringP("title", "t", "", "Title")
	f.String("image-url", "", "Image link")
	f.StringP("description", "d", "", "Description")
	f.String("summary", "", "Short summary")
	f.String("comment", "", "Personal comment")
	f.String("category", "", "Free-form category")
	f.String("tags", "", "Comma-separated list of tags")
	f.Bool("favorite", false, "Mark as favorite")
	f.String("directions", "", "Route description")
	f.Float64("lat", 0, "Latitude")
	f.Float64("lng", 0, "Longitude")
}

// patchFromFlags collects the record flags that were set on the command line.
func patchFromFlags(cmd *cobra.Command) contents.Patch {
	var p contents.Patch
	f := cmd.Flags()

	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	num := func(name string) *float64 {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetFloat64(name)
		return &v
	}

	p.URL = str("url")
	p.Title = str("title")
	p.ImageURL = str("image-url")
	p.Description = str("description")
	p.Summary = str("summary")
	p.Comment = str("comment")
	p.Category = str("category")
	p.Directions = str("directions")
	p.Latitude = num("lat")
	p.Longitude = num("lng")

	if tags := str("tags"); tags != nil {
		list := contents.SplitTags(*tags)
		p.Tags = &list
	}
	if f.Changed("favorite") {
		fav, _ := f.GetBool("favorite")
		p.Favorite = &fav
	}
	return p
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("type", "", "Only items of this kind")
	f.String("category", "", "Only items in this category")
	f.String("tag", "", "Only items carrying this tag")
	f.Bool("favorites", false, "Only favorites")
}

func filterFromFlags(cmd *cobra.Command) (cache.Filter, error) {
	var filter cache.Filter
	f := cmd.Flags()

	if typ, _ := f.GetString("type"); typ != "" {
		kind, err := contents.ParseKind(typ)
		if err != nil {
			return filter, err
		}
		filter.Kind = kind
	}
	filter.Category, _ = f.GetString("category")
	filter.Tag, _ = f.GetString("tag")
	filter.FavoritesOnly, _ = f.GetBool("favorites")
	return filter, nil
}

// printRecord writes one record as a JSON object, or as a text block with --text.
func printRecord(cmd *cobra.Command, r contents.Record) error {
	if text, _ := cmd.Flags().GetBool("text"); text {
		writeRecordText(cmd.OutOrStdout(), r)
		return nil
	}
	return printJSON(cmd.OutOrStdout(), r)
}

// printRecords writes records as a JSON array whatever their count, or one
// block per record with --text.
func printRecords(cmd *cobra.Command, records []contents.Record) error {
	out := cmd.OutOrStdout()
	if text, _ := cmd.Flags().GetBool("text"); !text {
		return printJSON(out, records)
	}
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeRecordText(out, r)
	}
	return nil
}

// writeRecordText prints the fields that matter for the record's kind.
func writeRecordText(w io.Writer, r contents.Record) {
	star := ""
	if r.Favorite {
		star = " *"
	}
	fmt.Fprintf(w, "#%d %s%s  (%s)\n", r.ID, r.Kind, star, r.Created)
	for _, field := range contents.Fields(r.Kind) {
		if !r.Present(field) {
			continue
		}
		fmt.Fprintf(w, "  %-12s %s\n", field+":", fieldValue(r, field))
	}
}

func fieldValue(r contents.Record, f contents.Field) string {
	switch f {
	case contents.FieldURL:
		return r.URL
	case contents.FieldTitle:
		return r.Title
	case contents.FieldImageURL:
		return r.ImageURL
	case contents.FieldDescription:
		return r.Description
	case contents.FieldSummary:
		return r.Summary
	case contents.FieldComment:
		return r.Comment
	case contents.FieldCategory:
		return r.Category
	case contents.FieldTags:
		return strings.Join(r.Tags, ", ")
	case contents.FieldDirections:
		return r.Directions
	case contents.FieldLatitude:
		return strconv.FormatFloat(*r.Latitude, 'f', -1, 64)
	case contents.FieldLongitude:
		return strconv.FormatFloat(*r.Longitude, 'f', -1, 64)
	}
	return ""
}

func initContentsCmd() {
	contentCreateCmd.Flags().String("type", "", fmt.Sprintf("Kind of item: %s (required)", kindList()))
	contentCreateCmd.MarkFlagRequired("type")
	addRecordFlags(contentCreateCmd)
	addRecordFlags(contentUpdateCmd)

	contentFavoriteCmd.Flags().Bool("off", false, "Remove the favorite mark")
	contentDeleteCmd.Flags().Duration("undo", 0, "Offer to undo the deletion for this long (e.g. 5s)")

	addFilterFlags(contentListCmd)
	addFilterFlags(searchCmd)

	for _, cmd := range []*cobra.Command{contentCreateCmd, contentListCmd, contentGetCmd, contentUpdateCmd, contentFavoriteCmd, searchCmd} {
		cmd.Flags().Bool("text", false, "Print a readable summary instead of JSON")
	}

	contentsCmd.AddCommand(contentCreateCmd, contentListCmd, contentGetCmd, contentUpdateCmd, contentFavoriteCmd, contentDeleteCmd, contentCategoriesCmd)
}

func kindList() string {
	names := make([]string, 0, len(contents.Kinds))
	for _, k := range contents.Kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
