package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"coursehub/internal/api"
	"coursehub/internal/api/friendships"
	"coursehub/internal/api/messages"
	"coursehub/internal/api/notifications"
)

func friendsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Friends, requests and recommendations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List friends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := rt.app.Friendships.List(cmd.Context())
			if err != nil {
				return err
			}
			return printFriendships(rt.printer(), list)
		},
	}

	requests := &cobra.Command{
		Use:   "requests",
		Short: "List pending friend requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := rt.app.Friendships.Requests(cmd.Context())
			if err != nil {
				return err
			}
			return printFriendships(rt.printer(), list)
		},
	}

	recommend := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest classmates to befriend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := rt.app.Friendships.Recommendations(cmd.Context())
			if err != nil {
				return err
			}
			p := rt.printer()
			return p.emit(recs, func() {
				rows := make([][]string, 0, len(recs))
				for _, r := range recs {
					rows = append(rows, []string{
						r.StudentID, r.Name, r.Major,
						strconv.Itoa(r.CommonFriends), strconv.Itoa(r.CommonCourses), num(r.RecommendationScore),
					})
				}
				p.table([]string{"STUDENT", "NAME", "MAJOR", "COMMON FRIENDS", "COMMON COURSES", "SCORE"}, rows)
			})
		},
	}

	var note string
	add := &cobra.Command{
		Use:   "add <student-id>",
		Short: "Send a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ack, err := rt.app.Friendships.SendRequest(cmd.Context(), args[0], note)
			if err != nil {
				return err
			}
			return printAck(rt.printer(), ack, "Friend request sent")
		},
	}
	add.Flags().StringVarP(&note, "message", "m", "", "Message for the request")

	accept := &cobra.Command{
		Use:   "accept <friendship-id>",
		Short: "Accept a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "friendship id")
			if err != nil {
				return err
			}
			ack, err := rt.app.Friendships.Accept(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printAck(rt.printer(), ack, "Friend request accepted")
		},
	}

	reject := &cobra.Command{
		Use:   "reject <friendship-id>",
		Short: "Reject a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "friendship id")
			if err != nil {
				return err
			}
			ack, err := rt.app.Friendships.Reject(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printAck(rt.printer(), ack, "Friend request rejected")
		},
	}

	remove := &cobra.Command{
		Use:   "remove <friendship-id>",
		Short: "Remove a friend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "friendship id")
			if err != nil {
				return err
			}
			if err := rt.app.Friendships.Delete(cmd.Context(), id); err != nil {
				return err
			}
			rt.printer().line("Removed friendship %d", id)
			return nil
		},
	}

	cmd.AddCommand(
		routed(list, "/friends"),
		routed(requests, "/friends/requests"),
		routed(recommend, "/friends/recommendations"),
		routed(add, "/friends"),
		routed(accept, "/friends/requests"),
		routed(reject, "/friends/requests"),
		routed(remove, "/friends"),
	)
	return cmd
}

func printFriendships(p printer, list []friendships.Friendship) error {
	return p.emit(list, func() {
		rows := make([][]string, 0, len(list))
		for _, f := range list {
			rows = append(rows, []string{
				strconv.FormatInt(f.FriendshipID, 10), f.FriendID, f.FriendName, f.FriendMajor, f.Status,
			})
		}
		p.table([]string{"ID", "FRIEND", "NAME", "MAJOR", "STATUS"}, rows)
	})
}

func printAck(p printer, ack api.Ack, fallback string) error {
	return p.emit(ack, func() {
		if ack.Message != "" {
			p.line("%s", ack.Message)
			return
		}
		p.line("%s", fallback)
	})
}

func messagesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Read and send messages",
	}

	var inboxFilter messages.Filter
	var unreadOnly bool
	inbox := &cobra.Command{
		Use:   "inbox",
		Short: "List received messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if unreadOnly {
				unread := false
				inboxFilter.IsRead = &unread
			}
			page, err := rt.app.Messages.Inbox(cmd.Context(), inboxFilter)
			if err != nil {
				return err
			}
			return printMessagePage(rt.printer(), page, true)
		},
	}
	inbox.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread messages")
	inbox.Flags().StringVar(&inboxFilter.Search, "search", "", "Search subject and content")
	bindPage(inbox, &inboxFilter.PageQuery)

	var sentFilter messages.Filter
	sent := &cobra.Command{
		Use:   "sent",
		Short: "List sent messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := rt.app.Messages.Sent(cmd.Context(), sentFilter)
			if err != nil {
				return err
			}
			return printMessagePage(rt.printer(), page, false)
		},
	}
	sent.Flags().StringVar(&sentFilter.Search, "search", "", "Search subject and content")
	bindPage(sent, &sentFilter.PageQuery)

	show := &cobra.Command{
		Use:   "show <message-id>",
		Short: "Show one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "message id")
			if err != nil {
				return err
			}
			m, err := rt.app.Messages.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			p := rt.printer()
			return p.emit(m, func() {
				p.fields(
					[2]string{"From", m.SenderName + " (" + m.SenderID + ")"},
					[2]string{"To", m.RecipientName + " (" + m.RecipientID + ")"},
					[2]string{"Subject", m.Subject},
					[2]string{"Sent", m.CreatedAt},
					[2]string{"Read", yesNo(m.IsRead)},
				)
				p.line("")
				p.line("%s", m.Content)
			})
		},
	}

	var draft messages.Draft
	send := &cobra.Command{
		Use:   "send",
		Short: "Send a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := rt.app.Messages.Send(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return rt.printer().emit(m, func() {
				rt.printer().line("Message %d sent to %s", m.MessageID, m.RecipientID)
			})
		},
	}
	send.Flags().StringVar(&draft.RecipientID, "to", "", "Recipient student id")
	send.Flags().StringVarP(&draft.Subject, "subject", "s", "", "Subject")
	send.Flags().StringVarP(&draft.Content, "content", "c", "", "Content")
	send.Flags().StringVar(&draft.MessageType, "type", "", "Message type (default personal)")

	var markUnread bool
	read := &cobra.Command{
		Use:   "read <message-id>",
		Short: "Mark a message read, or unread with --unset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "message id")
			if err != nil {
				return err
			}
			m, err := rt.app.Messages.SetRead(cmd.Context(), id, !markUnread)
			if err != nil {
				return err
			}
			return rt.printer().emit(m, func() {
				rt.printer().line("Message %d read: %s", id, yesNo(!markUnread))
			})
		},
	}
	read.Flags().BoolVar(&markUnread, "unset", false, "Mark unread instead")

	unread := &cobra.Command{
		Use:   "unread",
		Short: "Count unread messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := rt.app.Messages.UnreadCount(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printer().emit(map[string]int{"unread_count": n}, func() {
				rt.printer().line("%d unread messages", n)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <message-id>",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "message id")
			if err != nil {
				return err
			}
			if err := rt.app.Messages.Delete(cmd.Context(), id); err != nil {
				return err
			}
			rt.printer().line("Deleted message %d", id)
			return nil
		},
	}

	cmd.AddCommand(
		routed(inbox, "/messages"),
		routed(sent, "/messages"),
		routed(show, "/messages"),
		routed(send, "/messages/compose"),
		routed(read, "/messages"),
		routed(unread, "/messages"),
		routed(del, "/messages"),
	)
	return cmd
}

func printMessagePage(p printer, page api.Page[messages.Message], inbox bool) error {
	return p.emit(page, func() {
		peer := "TO"
		if inbox {
			peer = "FROM"
		}
		rows := make([][]string, 0, len(page.Items))
		for _, m := range page.Items {
			who := m.RecipientName
			if inbox {
				who = m.SenderName
			}
			rows = append(rows, []string{
				strconv.FormatInt(m.MessageID, 10), who, m.Subject, yesNo(m.IsRead), m.CreatedAt,
			})
		}
		p.table([]string{"ID", peer, "SUBJECT", "READ", "SENT"}, rows)
		p.line("page %d of %d, %d messages", page.Page, page.TotalPages, page.Total)
	})
}

func notificationsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "System notifications",
	}

	var f notifications.Filter
	var unreadOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if unreadOnly {
				unread := false
				f.IsRead = &unread
			}
			out, err := rt.app.Notifications.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			p := rt.printer()
			return p.emit(out, func() {
				rows := make([][]string, 0, len(out.Items))
				for _, n := range out.Items {
					rows = append(rows, []string{strconv.FormatInt(n.ID, 10), n.Type, n.Title, yesNo(n.IsRead), n.CreatedAt})
				}
				p.table([]string{"ID", "TYPE", "TITLE", "READ", "CREATED"}, rows)
				p.line("%d notifications, %d unread", out.Total, out.UnreadCount)
			})
		},
	}
	list.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread notifications")
	list.Flags().StringVar(&f.Type, "type", "", "Notification type")
	bindPage(list, &f.PageQuery)

	read := &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "notification id")
			if err != nil {
				return err
			}
			if err := rt.app.Notifications.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			rt.printer().line("Notification %d marked read", id)
			return nil
		},
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Notifications.MarkAllRead(cmd.Context()); err != nil {
				return err
			}
			rt.printer().line("All notifications marked read")
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <notification-id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "notification id")
			if err != nil {
				return err
			}
			if err := rt.app.Notifications.Delete(cmd.Context(), id); err != nil {
				return err
			}
			rt.printer().line("Deleted notification %d", id)
			return nil
		},
	}

	clearAll := &cobra.Command{
		Use:   "clear",
		Short: "Delete every notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Notifications.Clear(cmd.Context()); err != nil {
				return err
			}
			rt.printer().line("Notifications cleared")
			return nil
		},
	}

	for _, sub := range []*cobra.Command{list, read, readAll, del, clearAll} {
		cmd.AddCommand(routed(sub, "/notifications"))
	}
	return cmd
}
