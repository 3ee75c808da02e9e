package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"coursehub/internal/api"
	"coursehub/internal/api/courses"
	"coursehub/internal/api/enrollments"
)

func coursesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Browse and manage the course catalogue",
	}
	cmd.AddCommand(
		coursesListCmd(rt),
		coursesShowCmd(rt),
		coursesSearchCmd(rt),
		coursesCreateCmd(rt),
		coursesUpdateCmd(rt),
		coursesDeleteCmd(rt),
	)
	return cmd
}

func bindCourseFilter(cmd *cobra.Command, f *courses.Filter) {
	fl := cmd.Flags()
	fl.StringVar(&f.DepartmentID, "department", "", "Department id")
	fl.StringVar(&f.Semester, "semester", "", "Semester, e.g. 2024-2025-1")
	fl.StringVar(&f.Status, "status", "", "Course status")
	bindPage(cmd, &f.PageQuery)
}

func bindPage(cmd *cobra.Command, q *api.PageQuery) {
	cmd.Flags().IntVar(&q.Page, "page", 0, "Page number")
	cmd.Flags().IntVar(&q.PageSize, "page-size", 0, "Page size")
}

func coursesListCmd(rt *runtime) *cobra.Command {
	var f courses.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := rt.app.Courses.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printCoursePage(rt.printer(), page)
		},
	}
	bindCourseFilter(cmd, &f)
	return routed(cmd, "/courses")
}

func coursesSearchCmd(rt *runtime) *cobra.Command {
	var f courses.Filter
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search courses by name, id or teacher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := rt.app.Courses.Search(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			return printCoursePage(rt.printer(), page)
		},
	}
	bindCourseFilter(cmd, &f)
	return routed(cmd, "/courses")
}

func printCoursePage(p printer, page api.Page[courses.Course]) error {
	return p.emit(page, func() {
		rows := make([][]string, 0, len(page.Items))
		for _, c := range page.Items {
			rows = append(rows, []string{
				c.CourseID, c.CourseName, c.TeacherName, num(c.Credits),
				strconv.Itoa(c.CurrentStudents) + "/" + strconv.Itoa(c.MaxStudents), c.Semester, c.Status,
			})
		}
		p.table([]string{"ID", "NAME", "TEACHER", "CREDITS", "SEATS", "SEMESTER", "STATUS"}, rows)
		p.line("page %d of %d, %d courses", page.Page, page.TotalPages, page.Total)
	})
}

func coursesShowCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <course-id>",
		Short: "Show one course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course, err := rt.app.Courses.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := rt.printer()
			return p.emit(course, func() {
				p.fields(
					[2]string{"ID", course.CourseID},
					[2]string{"Name", course.CourseName},
					[2]string{"Department", course.DepartmentName},
					[2]string{"Teacher", course.TeacherName},
					[2]string{"Credits", num(course.Credits)},
					[2]string{"Hours", strconv.Itoa(course.Hours)},
					[2]string{"Schedule", course.Schedule},
					[2]string{"Semester", course.Semester},
					[2]string{"Seats left", strconv.Itoa(course.SeatsLeft())},
					[2]string{"Status", course.Status},
					[2]string{"Description", course.Description},
				)
			})
		},
	}
	return routed(cmd, "/courses/detail")
}

func coursesCreateCmd(rt *runtime) *cobra.Command {
	var in courses.Create
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a course (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			course, err := rt.app.Courses.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return rt.printer().emit(course, func() {
				rt.printer().line("Created course %s", course.CourseID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.CourseID, "id", "", "Course id")
	f.StringVar(&in.CourseName, "name", "", "Course name")
	f.StringVar(&in.DepartmentID, "department", "", "Department id")
	f.Float64Var(&in.Credits, "credits", 0, "Credits")
	f.IntVar(&in.Hours, "hours", 0, "Teaching hours")
	f.StringVar(&in.TeacherName, "teacher", "", "Teacher name")
	f.IntVar(&in.MaxStudents, "max-students", 0, "Capacity")
	f.StringVar(&in.Semester, "semester", "", "Semester")
	f.StringVar(&in.Schedule, "schedule", "", "Schedule")
	f.StringVar(&in.Description, "description", "", "Description")
	return routed(cmd, "/courses/manage")
}

func coursesUpdateCmd(rt *runtime) *cobra.Command {
	var (
		name, department, teacher, semester, schedule, description, status string
		credits                                                            float64
		hours, maxStudents                                                 int
	)
	cmd := &cobra.Command{
		Use:   "update <course-id>",
		Short: "Change course fields (admin); only given flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var in courses.Update
			if f.Changed("name") {
				in.CourseName = &name
			}
			if f.Changed("department") {
				in.DepartmentID = &department
			}
			if f.Changed("teacher") {
				in.TeacherName = &teacher
			}
			if f.Changed("semester") {
				in.Semester = &semester
			}
			if f.Changed("schedule") {
				in.Schedule = &schedule
			}
			if f.Changed("description") {
				in.Description = &description
			}
			if f.Changed("status") {
				in.Status = &status
			}
			if f.Changed("credits") {
				in.Credits = &credits
			}
			if f.Changed("hours") {
				in.Hours = &hours
			}
			if f.Changed("max-students") {
				in.MaxStudents = &maxStudents
			}

			course, err := rt.app.Courses.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return rt.printer().emit(course, func() {
				rt.printer().line("Updated course %s", course.CourseID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Course name")
	f.StringVar(&department, "department", "", "Department id")
	f.StringVar(&teacher, "teacher", "", "Teacher name")
	f.StringVar(&semester, "semester", "", "Semester")
	f.StringVar(&schedule, "schedule", "", "Schedule")
	f.StringVar(&description, "description", "", "Description")
	f.StringVar(&status, "status", "", "Status")
	f.Float64Var(&credits, "credits", 0, "Credits")
	f.IntVar(&hours, "hours", 0, "Teaching hours")
	f.IntVar(&maxStudents, "max-students", 0, "Capacity")
	return routed(cmd, "/courses/manage")
}

func coursesDeleteCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <course-id>",
		Short: "Delete a course (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Courses.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			rt.printer().line("Deleted course %s", args[0])
			return nil
		},
	}
	return routed(cmd, "/courses/manage")
}

func enrollCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enroll <course-id>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rt.app.Enrollments.Enroll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.printer().emit(e, func() {
				rt.printer().line("Enrolled in %s (enrollment %d)", e.CourseID, e.EnrollmentID)
			})
		},
	}
	return routed(cmd, "/courses")
}

func dropCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop <enrollment-id>",
		Short: "Drop an enrolled course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "enrollment id")
			if err != nil {
				return err
			}
			if err := rt.app.Enrollments.Drop(cmd.Context(), id); err != nil {
				return err
			}
			rt.printer().line("Dropped enrollment %d", id)
			return nil
		},
	}
	return routed(cmd, "/courses/my-courses")
}

func myCoursesCmd(rt *runtime) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "my-courses",
		Short: "List your enrollments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := rt.app.Enrollments.MyCourses(cmd.Context(), status)
			if err != nil {
				return err
			}
			return printEnrollments(rt.printer(), list)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Enrollment status, e.g. enrolled or dropped")
	return routed(cmd, "/courses/my-courses")
}

func printEnrollments(p printer, list []enrollments.Enrollment) error {
	return p.emit(list, func() {
		rows := make([][]string, 0, len(list))
		for _, e := range list {
			grade := "-"
			if e.Grade != nil {
				grade = num(*e.Grade)
			}
			rows = append(rows, []string{
				strconv.FormatInt(e.EnrollmentID, 10), e.CourseID, e.CourseName, e.StudentID, e.Status, grade,
			})
		}
		p.table([]string{"ENROLLMENT", "COURSE", "NAME", "STUDENT", "STATUS", "GRADE"}, rows)
	})
}

func enrollmentsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrollments",
		Short: "Course rosters, grading and statistics (admin)",
	}

	roster := &cobra.Command{
		Use:   "roster <course-id>",
		Short: "List a course's enrollments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := rt.app.Enrollments.CourseEnrollments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEnrollments(rt.printer(), list)
		},
	}

	var update enrollments.GradeUpdate
	grade := &cobra.Command{
		Use:   "grade <enrollment-id>",
		Short: "Record a grade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "enrollment id")
			if err != nil {
				return err
			}
			e, err := rt.app.Enrollments.UpdateGrade(cmd.Context(), id, update)
			if err != nil {
				return err
			}
			return rt.printer().emit(e, func() {
				rt.printer().line("Graded enrollment %d: %s", e.EnrollmentID, num(update.Grade))
			})
		},
	}
	grade.Flags().Float64Var(&update.Grade, "grade", 0, "Grade between 0 and 100")
	grade.Flags().StringVar(&update.Remarks, "remarks", "", "Remarks")
	_ = grade.MarkFlagRequired("grade")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show enrollment statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := rt.app.Enrollments.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			p := printer{w: rt.streams.Out, json: true}
			return p.emit(s, nil)
		},
	}

	cmd.AddCommand(
		routed(roster, "/enrollments"),
		routed(grade, "/enrollments/grades"),
		routed(stats, "/enrollments/statistics"),
	)
	return cmd
}
