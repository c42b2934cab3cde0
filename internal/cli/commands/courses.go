package commands

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/session"
)

func parseCourseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid course id %q", arg)
	}
	return id, nil
}

// runCancellable treats a declined confirmation as success
func runCancellable(err error) error {
	if errors.Is(err, courses.ErrCancelled) {
		return nil
	}
	return reported(err)
}

func seats(enrolled, capacity int) string {
	return fmt.Sprintf("%d/%d", enrolled, capacity)
}

// NewCoursesCmd creates the courses command
func NewCoursesCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:         "courses",
		Short:       "List all courses",
		Annotations: map[string]string{routeAnnotation: routeCourses},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireRole(session.RoleStudent); err != nil {
				return err
			}

			store := a.courses(false)
			if err := store.FetchAvailable(cmd.Context()); err != nil {
				return reported(err)
			}

			list := store.Available()
			if len(list) == 0 {
				fmt.Fprintln(deps.Out, "No courses available.")
				return nil
			}

			w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTEACHER\tSEATS\tSTATUS")
			fmt.Fprintln(w, "──\t────\t───────\t─────\t──────")
			for _, c := range list {
				status := ""
				switch {
				case c.IsEnrolled:
					status = "enrolled"
				case c.IsFull:
					status = "full"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Teacher, seats(c.Enrolled, c.Capacity), status)
			}
			return w.Flush()
		},
	}
}

// NewMyCoursesCmd creates the my-courses command
func NewMyCoursesCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:         "my-courses",
		Short:       "List the courses you are enrolled in",
		Annotations: map[string]string{routeAnnotation: routeMyCourses},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireRole(session.RoleStudent); err != nil {
				return err
			}

			store := a.courses(false)
			if err := store.FetchMine(cmd.Context()); err != nil {
				return reported(err)
			}

			list := store.Mine()
			if len(list) == 0 {
				fmt.Fprintln(deps.Out, "You are not enrolled in any course.")
				fmt.Fprintln(deps.Out, "\nEnroll with: coursehub enroll <course-id>")
				return nil
			}

			w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTEACHER\tENROLLED AT")
			fmt.Fprintln(w, "──\t────\t───────\t───────────")
			for _, c := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.CourseID, c.CourseName, c.Teacher, c.EnrolledAt)
			}
			return w.Flush()
		},
	}
}

// NewEnrollCmd creates the enroll command
func NewEnrollCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:         "enroll <course-id>",
		Short:       "Enroll in a course",
		Annotations: map[string]string{routeAnnotation: routeEnroll},
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireRole(session.RoleStudent); err != nil {
				return err
			}
			id, err := parseCourseID(args[0])
			if err != nil {
				return err
			}

			return reported(a.courses(false).Enroll(cmd.Context(), id))
		},
	}
}

// NewDropCmd creates the drop command
func NewDropCmd(deps *Deps) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:         "drop <course-id>",
		Short:       "Drop a course",
		Annotations: map[string]string{routeAnnotation: routeDrop},
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.requireRole(session.RoleStudent); err != nil {
				return err
			}
			id, err := parseCourseID(args[0])
			if err != nil {
				return err
			}

			return runCancellable(a.courses(yes).Drop(cmd.Context(), id))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}
