package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"study-reminder/internal/model"
	"study-reminder/internal/service"
)

var (
	// category command flags
	categoryColor string
	categoryIcon  string
	categoryName  string
	categoryForce bool
)

func init() {
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryEditCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)

	for _, c := range []*cobra.Command{categoryAddCmd, categoryEditCmd} {
		c.Flags().StringVar(&categoryColor, "color", "", "Hex color, e.g. #3b82f6")
		c.Flags().StringVar(&categoryIcon, "icon", "", "Icon name")
	}
	categoryEditCmd.Flags().StringVar(&categoryName, "name", "", "New name")
	categoryDeleteCmd.Flags().BoolVar(&categoryForce, "force", false, "Delete even when tasks still reference the category")
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage subject categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories and how many tasks use each",
	RunE:  runCategoryList,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryAdd,
}

var categoryEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Rename or recolor a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryEdit,
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a category; tasks keep their reference",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryDelete,
}

func categoryIDs(categories []model.Category) []string {
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}

func runCategoryList(cmd *cobra.Command, _ []string) error {
	a := application
	tasks := a.tasks.Tasks()
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tCOLOR\tICON\tTASKS")
	for _, c := range a.categories.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", shortID(c.ID), c.Name, c.Color, c.Icon, service.InUse(c.ID, tasks))
	}
	return w.Flush()
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	category, err := application.categories.Add(cmd.Context(), service.CategoryInput{
		Name:  args[0],
		Color: categoryColor,
		Icon:  categoryIcon,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added category %s  %s\n", shortID(category.ID), category.Name)
	return nil
}

func runCategoryEdit(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("category", args[0], categoryIDs(a.categories.List()))
	if err != nil {
		return err
	}
	var patch service.CategoryPatch
	if cmd.Flags().Changed("name") {
		patch.Name = &categoryName
	}
	if cmd.Flags().Changed("color") {
		patch.Color = &categoryColor
	}
	if cmd.Flags().Changed("icon") {
		patch.Icon = &categoryIcon
	}
	category, err := a.categories.Update(cmd.Context(), id, patch)
	if err != nil {
		return err
	}
	if category == nil {
		return model.NewError(model.ErrCodeNotFound, "category not found")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated category %s  %s\n", shortID(category.ID), category.Name)
	return nil
}

func runCategoryDelete(cmd *cobra.Command, args []string) error {
	a := application
	id, err := resolveID("category", args[0], categoryIDs(a.categories.List()))
	if err != nil {
		return err
	}
	if n := service.InUse(id, a.tasks.Tasks()); n > 0 && !categoryForce {
		return fmt.Errorf("category is used by %d task(s); pass --force to delete it anyway", n)
	}
	if err := a.categories.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", shortID(id))
	return nil
}
