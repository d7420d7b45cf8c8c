package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/store"
)

var (
	searchSchool string
	searchSport  string
	searchAsync  bool
	searchSave   string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the coaching staff for a school and sport",
	Long: `Search a school's athletics site for the coaches of one sport. Coaches
without an email or phone are left out. Rows already in your contacts are
marked with '*'.

Use --save to keep results, e.g. --save 1,3-4 or --save all.`,
	Example: `  skout search --school Duke --sport Football
  skout search --school "Ohio State" --sport "Women's Soccer" --save all`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchSchool, "school", "", "school name")
	searchCmd.Flags().StringVar(&searchSport, "sport", "", "sport name")
	searchCmd.Flags().BoolVar(&searchAsync, "async", false, "queue the search on the server and poll for the result")
	searchCmd.Flags().StringVar(&searchSave, "save", "", "result numbers to save to contacts")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := store.ValidateQuery(searchSchool, searchSport); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := a.openStores(ctx); err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()

	stopMonitor, err := a.monitor(ctx)
	if err != nil {
		return err
	}
	defer stopMonitor()
	if !a.network.Connected() {
		return errors.New("search service unreachable; check your connection and try again")
	}
	defer a.network.Subscribe(func(connected bool) {
		if connected {
			fmt.Fprintln(stderr, "Connection restored.")
		} else {
			fmt.Fprintln(stderr, "Search service unreachable.")
		}
	})()

	opts := []store.SearchOption{store.WithTiming(store.StageTiming{
		ExtractingAfter:  a.cfg.Search.ExtractingAfter,
		NormalizingAfter: a.cfg.Search.NormalizingAfter,
		Timeout:          a.cfg.Search.Timeout,
		PollInterval:     a.cfg.Search.PollInterval,
	})}
	if searchAsync || a.cfg.Search.Async {
		opts = append(opts, store.WithAsync(a.search))
	}
	ss := store.NewSearchStore(a.search, a.contacts, a.contacts, a.logger, opts...)

	last := store.StageIdle
	defer ss.Subscribe(func(st store.SearchState) {
		if st.Stage != last && store.IsInFlight(st.Stage) {
			fmt.Fprintln(stderr, st.Stage.Label())
		}
		last = st.Stage
	})()

	ss.SetQuery(searchSchool, searchSport)
	if err := ss.Search(ctx); err != nil {
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		if msg := ss.Snapshot().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	st := ss.Snapshot()
	if len(st.Results) == 0 {
		fmt.Fprintf(a.out, "No coaches with contact details found for %s %s.\n", st.Sport, st.School)
		return nil
	}
	fmt.Fprintf(a.out, "%d coaches at %s (%s):\n\n", len(st.Results), st.School, st.Sport)
	printCoaches(a.out, st.Results, ss.IsSaved)

	if searchSave == "" {
		return nil
	}
	picks, err := parseIndices(searchSave, len(st.Results))
	if err != nil {
		return err
	}
	for _, i := range picks {
		ss.ToggleSelection(i)
	}
	added, err := ss.SaveSelected(ctx)
	fmt.Fprintf(a.out, "\nSaved %d new contact(s).\n", added)
	if err != nil {
		return fmt.Errorf("some contacts were kept locally but not synced: %w", err)
	}
	return nil
}
