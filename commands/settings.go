package commands

import (
	"os"

	"amtrak-price-tracker/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	settingsInterval      int
	settingsEmail         string
	settingsEmailEnabled  bool
	settingsNotifications bool
)

func init() {
	f := settingsCmd.Flags()
	f.IntVar(&settingsInterval, "interval", 0, "Hours between scheduled sweeps.")
	f.StringVar(&settingsEmail, "email", "", "Address for email notifications.")
	f.BoolVar(&settingsEmailEnabled, "email-enabled", false, "Send notifications by email.")
	f.BoolVar(&settingsNotifications, "notifications", true, "Show notifications at all.")
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings [--interval <hours>] [--email <address>] [--email-enabled] [--notifications]",
	Short: "Shows the tracker settings, updating any given with flags.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		var patch models.SettingsPatch
		changed := false
		f := cmd.Flags()
		if f.Changed("interval") {
			patch.CheckInterval = &settingsInterval
			changed = true
		}
		if f.Changed("email") {
			patch.EmailAddress = &settingsEmail
			changed = true
		}
		if f.Changed("email-enabled") {
			patch.EmailEnabled = &settingsEmailEnabled
			changed = true
		}
		if f.Changed("notifications") {
			patch.NotificationsEnabled = &settingsNotifications
			changed = true
		}

		var st models.Settings
		if changed {
			st, err = a.settings.Save(ctx, patch)
		} else {
			st, err = a.settings.Get(ctx)
		}
		if err != nil {
			return err
		}
		printSettings(st)
		return nil
	},
}

func printSettings(st models.Settings) {
	last := "never"
	if st.LastChecked != nil {
		last = st.LastChecked.Local().Format("Jan 2 15:04")
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRows([]table.Row{
		{"Check interval", st.Interval().String()},
		{"Last sweep", last},
		{"Notifications", st.NotificationsEnabled},
		{"Email", st.EmailEnabled},
		{"Email address", st.EmailAddress},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
