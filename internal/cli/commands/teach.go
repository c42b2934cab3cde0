package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/session"
)

// NewTeachCmd creates the teach command group
func NewTeachCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teach",
		Short: "Manage the courses you teach",
	}

	cmd.AddCommand(newTeachListCmd(deps))
	cmd.AddCommand(newTeachCreateCmd(deps))
	cmd.AddCommand(newTeachDeleteCmd(deps))
	cmd.AddCommand(newTeachStudentsCmd(deps))

	return cmd
}

func teacherApp(cmd *cobra.Command) (*app, error) {
	a := appFrom(cmd)
	if err := a.requireRole(session.RoleTeacher); err != nil {
		return nil, err
	}
	return a, nil
}

func newTeachListCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List your courses",
		Annotations: map[string]string{routeAnnotation: routeTeach},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := teacherApp(cmd)
			if err != nil {
				return err
			}

			store := a.courses(false)
			if err := store.FetchTeaching(cmd.Context()); err != nil {
				return reported(err)
			}

			list := store.Teaching()
			if len(list) == 0 {
				fmt.Fprintln(deps.Out, "You are not teaching any course.")
				fmt.Fprintln(deps.Out, "\nCreate one with: coursehub teach create --name <name>")
				return nil
			}

			w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSEATS\tCREATED AT")
			fmt.Fprintln(w, "──\t────\t─────\t──────────")
			for _, c := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Name, seats(c.Enrolled, c.Capacity), c.CreatedAt)
			}
			return w.Flush()
		},
	}
}

func newTeachCreateCmd(deps *Deps) *cobra.Command {
	form := courses.NewCourseForm()

	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Create a course",
		Annotations: map[string]string{routeAnnotation: routeTeach},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := teacherApp(cmd)
			if err != nil {
				return err
			}

			if form.Name == "" {
				if form.Name, err = deps.Prompter.Input("Course name"); err != nil {
					return err
				}
			}

			store := a.courses(false)
			store.SetForm(form)
			return reported(store.Create(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Course name")
	cmd.Flags().StringVar(&form.Description, "description", "", "Course description")
	cmd.Flags().IntVar(&form.Capacity, "capacity", form.Capacity, "Maximum number of students")

	return cmd
}

func newTeachDeleteCmd(deps *Deps) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:         "delete <course-id>",
		Short:       "Delete one of your courses",
		Annotations: map[string]string{routeAnnotation: routeTeach},
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := teacherApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseCourseID(args[0])
			if err != nil {
				return err
			}

			return runCancellable(a.courses(yes).Delete(cmd.Context(), id))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newTeachStudentsCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:         "students <course-id>",
		Short:       "List the students enrolled in one of your courses",
		Annotations: map[string]string{routeAnnotation: routeTeach},
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := teacherApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseCourseID(args[0])
			if err != nil {
				return err
			}

			store := a.courses(false)
			if err := store.ViewStudents(cmd.Context(), id); err != nil {
				return reported(err)
			}
			defer store.CloseStudents()

			course, roster, _ := store.Roster()
			fmt.Fprintf(deps.Out, "Students in %s (%d):\n\n", course.Name, roster.Total)
			if len(roster.Students) == 0 {
				fmt.Fprintln(deps.Out, "No students enrolled.")
				return nil
			}

			w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tENROLLED AT")
			fmt.Fprintln(w, "──\t────────\t─────\t───────────")
			for _, s := range roster.Students {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Username, s.Email, s.EnrolledAt)
			}
			return w.Flush()
		},
	}
}
