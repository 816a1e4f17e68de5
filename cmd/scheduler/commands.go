package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/tablewriter"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/example/meeting-scheduler/internal/application"
)

const dateLayout = "2006-01-02"

func (c *cli) organizerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "organizer",
		Aliases: []string{"organizers"},
		Short:   "Manage organizers",
	}
	cmd.AddCommand(
		c.organizerCreateCommand(),
		c.organizerHoursCommand(),
		c.organizerBlackoutCommand(),
	)
	return cmd
}

func (c *cli) organizerCreateCommand() *cobra.Command {
	var params application.CreateOrganizerParams
	cmd := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create an organizer with its scheduling settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Username = args[0]
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				organizer, err := a.organizers.CreateOrganizer(ctx, params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", organizer.ID, organizer.Username)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&params.DisplayName, "name", "", "display name")
	flags.StringVar(&params.Email, "email", "", "contact email")
	flags.StringVar(&params.WorkingTimezone, "timezone", "UTC", "IANA working timezone")
	flags.IntVar(&params.DefaultMeetingDuration, "duration", 30, "meeting length in minutes")
	flags.IntVar(&params.PreBookingBuffer, "pre-buffer", 0, "minutes kept free before each booking")
	flags.IntVar(&params.PostBookingBuffer, "post-buffer", 0, "minutes kept free after each booking")
	flags.IntVar(&params.MinBookingNotice, "min-notice", 0, "minimum lead time in hours")
	flags.IntVar(&params.MaxBookingAdvance, "max-advance", 30, "booking horizon in days")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) organizerHoursCommand() *cobra.Command {
	var specs []string
	cmd := &cobra.Command{
		Use:   "hours USERNAME",
		Short: "Replace the weekly working hours",
		Long: "Replace the weekly working hours of an organizer. Each --block takes\n" +
			"DAY=HH:MM-HH:MM, for example --block mon=09:00-12:00 --block mon=13:00-17:00.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks := make([]application.WorkingHourBlock, 0, len(specs))
			for _, spec := range specs {
				block, err := parseBlockFlag(spec)
				if err != nil {
					return err
				}
				blocks = append(blocks, block)
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.organizers.ReplaceWorkingHours(ctx, args[0], blocks); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d working hour blocks stored\n", len(blocks))
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&specs, "block", nil, "working block as DAY=HH:MM-HH:MM (repeatable)")
	return cmd
}

func (c *cli) organizerBlackoutCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "blackout USERNAME YYYY-MM-DD",
		Short: "Block out a whole day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.Parse(dateLayout, args[1])
			if err != nil {
				return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", args[1])
			}
			var reasonPtr *string
			if reason != "" {
				reasonPtr = &reason
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				blackout, err := a.organizers.AddBlackoutDate(ctx, args[0], day, reasonPtr)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", blackout.ID, args[1])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "optional note")
	return cmd
}

type slotOutput struct {
	Start    string `json:"start_time"`
	End      string `json:"end_time"`
	Timezone string `json:"timezone"`
}

func (c *cli) slotsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "slots USERNAME",
		Short: "Print the bookable slots of an organizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				availability, err := a.availability.ListAvailability(ctx, strings.ToLower(args[0]))
				if err != nil {
					return err
				}
				return printSlots(cmd.OutOrStdout(), availability, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printSlots(out io.Writer, availability application.Availability, asJSON bool) error {
	loc, err := availability.Settings.Location()
	if err != nil {
		loc = time.UTC
	}

	if asJSON {
		slots := make([]slotOutput, 0, len(availability.Slots))
		for _, slot := range availability.Slots {
			slots = append(slots, slotOutput{
				Start:    slot.Start.UTC().Format(time.RFC3339),
				End:      slot.End.UTC().Format(time.RFC3339),
				Timezone: slot.Timezone,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(slots)
	}

	if len(availability.Slots) == 0 {
		fmt.Fprintln(out, "no slots available")
		return nil
	}
	return tablewriter.Render(
		out,
		availability.Slots,
		[]string{"Day", "Local", "Starts", "UTC"},
		func(slot application.Slot) ([]string, error) {
			local := slot.Start.In(loc)
			return []string{
				local.Format("Mon 2006-01-02"),
				local.Format("15:04") + "-" + slot.End.In(loc).Format("15:04"),
				humanize.Time(slot.Start),
				slot.Start.UTC().Format(time.RFC3339),
			}, nil
		},
	)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// parseBlockFlag parses DAY=HH:MM-HH:MM. Clock values are checked by the
// organizer service.
func parseBlockFlag(spec string) (application.WorkingHourBlock, error) {
	day, window, ok := strings.Cut(spec, "=")
	if !ok {
		return application.WorkingHourBlock{}, fmt.Errorf("invalid block %q: expected DAY=HH:MM-HH:MM", spec)
	}
	weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return application.WorkingHourBlock{}, fmt.Errorf("invalid block %q: unknown day %q", spec, day)
	}
	start, end, ok := strings.Cut(window, "-")
	if !ok {
		return application.WorkingHourBlock{}, fmt.Errorf("invalid block %q: expected DAY=HH:MM-HH:MM", spec)
	}
	return application.WorkingHourBlock{
		DayOfWeek: weekday,
		StartTime: strings.TrimSpace(start),
		EndTime:   strings.TrimSpace(end),
		IsActive:  true,
	}, nil
}
