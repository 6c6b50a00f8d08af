package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/heartbeat-sense/heartbeat-go/api"
	"github.com/heartbeat-sense/heartbeat-go/dossier"
	"github.com/heartbeat-sense/heartbeat-go/measure"
	"github.com/heartbeat-sense/heartbeat-go/monitor"
	"github.com/heartbeat-sense/heartbeat-go/tags"
)

type commandHandler func(args []string) error

func (a *app) commands() map[string]commandHandler {
	return map[string]commandHandler{
		"login":    a.loginCmd,
		"signup":   a.signupCmd,
		"status":   a.statusCmd,
		"activity": a.activityCmd,
		"tag":      a.tagCmd,
		"overview": a.overviewCmd,
		"dossier":  a.dossierCmd,
		"monitor":  a.monitorCmd,
		"logout":   a.logoutCmd,
	}
}

// requireSession validates the cached session the way the app's route
// guards do; on failure the user is pointed back at login.
func (a *app) requireSession(ctx context.Context) error {
	if !a.session.ValidateSession(ctx) {
		return errors.New("session expired, run `heartbeat login`")
	}
	return nil
}

func (a *app) loginCmd(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login requires -email and -password")
	}

	user, err := a.client.Login(context.Background(), api.LoginRequest{
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return errors.Wrap(err, "login failed")
	}

	a.session.Establish(user)
	fmt.Printf("Welcome back, %s\n", a.session.DisplayName())
	return nil
}

func (a *app) signupCmd(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	age := fs.Int("age", 0, "age in years")
	gender := fs.String("gender", "", "gender")
	email := fs.String("email", "", "account email")
	number := fs.String("number", "", "phone number")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("signup requires at least -email and -password")
	}

	user, err := a.client.Register(context.Background(), api.RegisterRequest{
		FirstName: *first,
		LastName:  *last,
		Age:       *age,
		Gender:    *gender,
		Email:     *email,
		Number:    *number,
		Password:  *password,
	})
	if err != nil {
		return errors.Wrap(err, "signup failed")
	}

	a.session.Establish(user)
	fmt.Printf("Account created. Welcome, %s\n", a.session.DisplayName())
	return nil
}

func (a *app) statusCmd(args []string) error {
	ctx := context.Background()
	if !a.session.ValidateSession(ctx) {
		fmt.Println("Not signed in")
		return nil
	}

	fmt.Printf("Signed in as %s\n", a.session.DisplayName())
	if age, ok := a.session.Age(); ok {
		fmt.Printf("Age:          %d\n", age)
	}
	if user := a.session.GetUser(); user != nil && user.Email != "" {
		fmt.Printf("Email:        %s\n", user.Email)
	}
	if exp, ok := a.session.TokenExpiry(); ok {
		fmt.Printf("Token expiry: %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func (a *app) activityCmd(args []string) error {
	fs := flag.NewFlagSet("activity", flag.ContinueOnError)
	day := fs.String("day", "", "limit to one day (YYYY-MM-DD, UTC)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	var dayFilter *time.Time
	if *day != "" {
		parsed, err := time.Parse("2006-01-02", *day)
		if err != nil {
			return errors.Wrap(err, "invalid -day")
		}
		dayFilter = &parsed
	}

	measurements, err := a.client.LatestMeasurements(ctx, a.config.GetMeasurementLimit(), nil)
	if err != nil {
		return errors.Wrap(err, "fetching measurements failed")
	}
	activities, err := a.client.ListActivities(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching activities failed")
	}

	slots := measure.ComputeSlots(measurements, activities, dayFilter)
	slots = tags.NewStore(a.store).Apply(slots)
	if len(slots) == 0 {
		fmt.Println("No measurements yet")
		return nil
	}

	fmt.Printf("%-20s  %-8s  %-8s  %s\n", "Slot", "Avg bpm", "Samples", "Tag")
	for _, slot := range slots {
		fmt.Printf("%-20s  %-8d  %-8d  %s\n",
			slot.SlotStart.Format("2006-01-02 15:04"), slot.AverageBPM, slot.SampleCount, slot.ActivityLabel)
	}
	return nil
}

func (a *app) tagCmd(args []string) error {
	fs := flag.NewFlagSet("tag", flag.ContinueOnError)
	slot := fs.String("slot", "", "slot start (RFC 3339)")
	label := fs.String("label", "", "label to assign; empty removes it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *slot == "" {
		return errors.New("tag requires -slot")
	}

	slotStart, err := time.Parse(time.RFC3339, *slot)
	if err != nil {
		return errors.Wrap(err, "invalid -slot")
	}

	if err := tags.NewStore(a.store).Assign(slotStart, *label); err != nil {
		return errors.Wrap(err, "saving tag failed")
	}
	if *label == "" {
		fmt.Println("Tag removed")
	} else {
		fmt.Printf("Tagged %s as %q\n", tags.SlotKey(slotStart), *label)
	}
	return nil
}

func (a *app) overviewCmd(args []string) error {
	ctx := context.Background()
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	measurements, err := a.client.LatestMeasurements(ctx, a.config.GetMeasurementLimit(), nil)
	if err != nil {
		return errors.Wrap(err, "fetching measurements failed")
	}

	stats := measure.Overview(measurements)
	if stats.SampleCount == 0 {
		fmt.Println("No measurements yet")
		return nil
	}

	fmt.Printf("Latest:  %d bpm at %s\n", stats.LatestBPM, stats.LatestAt.Local().Format(time.RFC1123))
	fmt.Printf("Average: %d bpm over %d samples\n", stats.AverageBPM, stats.SampleCount)

	fmt.Println("\nWeekly rollup:")
	for _, day := range measure.ComputeWeeklyRollup(measurements) {
		fmt.Printf("  %s  %3d bpm  (%d samples)\n", day.Label, day.AverageBPM, day.SampleCount)
	}

	if len(stats.Days) > 0 {
		latestDay, err := time.Parse("2006-01-02", stats.Days[0])
		if err == nil {
			day := measure.DayStats(measurements, latestDay)
			fmt.Printf("\n%s: %d bpm average, %d samples, %d active minutes\n",
				stats.Days[0], day.AverageBPM, day.SampleCount, day.ActiveMinutes)
		}
	}
	return nil
}

func (a *app) dossierCmd(args []string) error {
	fs := flag.NewFlagSet("dossier", flag.ContinueOnError)
	height := fs.String("height", "", "height in cm")
	weight := fs.String("weight", "", "weight in kg")
	bloodType := fs.String("blood-type", "", "blood type")
	restingRate := fs.String("resting-rate", "", "resting heart rate")
	maxRate := fs.String("max-rate", "", "maximum heart rate")
	bloodPressure := fs.String("blood-pressure", "", "blood pressure")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ds := dossier.NewStore(a.store)
	data := ds.Load()

	changed := false
	for _, update := range []struct {
		flagValue string
		field     *string
	}{
		{*height, &data.Personal.Height},
		{*weight, &data.Personal.Weight},
		{*bloodType, &data.Personal.BloodType},
		{*restingRate, &data.Heart.RestingRate},
		{*maxRate, &data.Heart.MaxRate},
		{*bloodPressure, &data.Heart.BloodPressure},
	} {
		if update.flagValue != "" {
			*update.field = update.flagValue
			changed = true
		}
	}
	if changed {
		data.Heart.LastCheck = time.Now().Format("2006-01-02")
		if err := ds.Save(data); err != nil {
			return errors.Wrap(err, "saving dossier failed")
		}
	}

	fmt.Println("Personal")
	fmt.Printf("  Height:         %s\n", orDash(data.Personal.Height))
	fmt.Printf("  Weight:         %s\n", orDash(data.Personal.Weight))
	fmt.Printf("  Blood type:     %s\n", orDash(data.Personal.BloodType))
	fmt.Println("Heart")
	fmt.Printf("  Resting rate:   %s\n", orDash(data.Heart.RestingRate))
	fmt.Printf("  Max rate:       %s\n", orDash(data.Heart.MaxRate))
	fmt.Printf("  Blood pressure: %s\n", orDash(data.Heart.BloodPressure))
	fmt.Printf("  Last check:     %s\n", orDash(data.Heart.LastCheck))
	return nil
}

func (a *app) monitorCmd(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	duration := fs.Duration("duration", 30*time.Second, "how long to measure")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deviceID, err := monitor.DeviceID(a.store)
	if err != nil {
		return errors.Wrap(err, "resolving device id failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	fmt.Printf("Measuring for %s (Ctrl-C to stop early)...\n", duration)
	result := monitor.Run(ctx, monitor.NewSampler(time.Now().UnixNano()), deviceID, time.Second, func(bpm int) {
		fmt.Printf("\r%3d bpm ", bpm)
	})
	fmt.Println()

	if result.Samples == 0 {
		fmt.Println("No samples recorded")
		return nil
	}
	fmt.Printf("Average %d bpm over %d samples (%s, device %s)\n",
		result.AverageBPM, result.Samples, result.Duration.Round(time.Second), result.DeviceID)
	return nil
}

func (a *app) logoutCmd(args []string) error {
	a.session.Clear()
	fmt.Println("Signed out")
	return nil
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
