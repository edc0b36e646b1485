// ABOUTME: CLI commands for Charm-based cross-device mirroring.
// ABOUTME: Supports link, unlink, status, push, repair, reset, and wipe.
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/charm"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror raw data across devices",
	Long: `Mirror raw data across devices using Charm Cloud.

Only raw entities are mirrored: observations, workouts, and calendar
events. Baselines, habits, and suggestions are derived state that each
device recomputes locally, so they never leave the machine.

Your data is E2E encrypted with your SSH key before upload. The server
never sees your unencrypted readings.

GETTING STARTED:

  1. Link your device (creates/uses SSH key automatically):
     pulse sync link

  2. On other devices, link with the same Charm account:
     pulse sync link

  3. Push your raw data:
     pulse sync push

COMMANDS:

  link        Link this device to your Charm account
  unlink      Disconnect this device from Charm
  status      Show sync status and mirrored counts
  push        Mirror local raw data to the cloud
  repair      Repair database corruption (checkpoints WAL, removes SHM, vacuums)
  reset       Reset local mirror and restore from cloud (destructive)
  wipe        Delete cloud and local mirror data (destructive)`,
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	Long: `Link this device to your Charm account.

If you don't have a Charm account, one will be created using your SSH key.
If you already have an account, you'll be prompted to link via charm.sh.

Example:
  pulse sync link`,
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.Command("charm", "link")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr

		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}

		color.Green("\n✓ Device linked to Charm")
		fmt.Println("Run 'pulse sync push' to mirror your raw data.")
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Disconnect from Charm",
	Long: `Disconnect this device from Charm.

This does not delete your local data.
You can link again later with 'pulse sync link'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.Command("charm", "unlink")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr

		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to unlink: %w", err)
		}

		color.Green("✓ Device unlinked from Charm")
		fmt.Println("Your local data is preserved.")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := charm.GetClient()
		if err != nil {
			color.Yellow("Charm client not initialized: %v", err)
			fmt.Println("\nRun 'pulse sync link' to connect to Charm.")
			return nil
		}
		defer client.Close()

		id, err := client.ID()
		if err != nil {
			color.Yellow("Not linked to Charm")
			fmt.Println("\nRun 'pulse sync link' to connect to Charm.")
			return nil
		}

		fmt.Println("Charm ID:", id)
		fmt.Println("Server:", charm.Host)
		fmt.Println()

		obs, _ := client.ListObservations(currentUser())
		workouts, _ := client.ListWorkouts(currentUser())
		events, _ := client.ListCalendarEvents(currentUser())

		color.Green("✓ Connected to Charm")
		fmt.Printf("  Observations: %d\n", len(obs))
		fmt.Printf("  Workouts: %d\n", len(workouts))
		fmt.Printf("  Calendar events: %d\n", len(events))
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Mirror local raw data to the cloud",
	Long: `Mirror this device's raw observations, workouts, and calendar
events to Charm Cloud. Keys are stable, so pushing repeatedly is safe
and only uploads one consistent snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := charm.GetClient()
		if err != nil {
			return fmt.Errorf("charm client: %w", err)
		}
		defer client.Close()
		if client.IsReadOnly() {
			return fmt.Errorf("charm store is read-only; is another process syncing?")
		}

		obs, err := repo.ListObservations(currentUser(), 0)
		if err != nil {
			return fmt.Errorf("failed to load observations: %w", err)
		}
		if err := client.MirrorObservations(obs); err != nil {
			return fmt.Errorf("failed to mirror observations: %w", err)
		}

		workouts, err := repo.ListWorkouts(currentUser(), 0)
		if err != nil {
			return fmt.Errorf("failed to load workouts: %w", err)
		}
		for _, w := range workouts {
			if err := client.MirrorWorkout(w); err != nil {
				return fmt.Errorf("failed to mirror workout %s: %w", w.ID, err)
			}
		}

		events, err := repo.ListCalendarEvents(currentUser(), 0)
		if err != nil {
			return fmt.Errorf("failed to load calendar events: %w", err)
		}
		for _, ev := range events {
			if err := client.MirrorCalendarEvent(ev); err != nil {
				return fmt.Errorf("failed to mirror event %s: %w", ev.ID, err)
			}
		}

		color.Green("✓ Pushed %d observations, %d workouts, %d events",
			len(obs), len(workouts), len(events))
		return nil
	},
}

var syncWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all cloud and local mirror data",
	Long: `Delete all cloud backups and the local mirror store.

This is a DESTRUCTIVE operation. The SQLite database is untouched;
only the Charm mirror is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("This will PERMANENTLY DELETE all cloud backups and the local mirror.")
		fmt.Print("Type 'wipe' to confirm: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "wipe" {
			fmt.Println("Canceled.")
			return nil
		}

		result, err := kv.Wipe(charm.DBName)
		if err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}

		color.Green("✓ Mirror wiped")
		fmt.Printf("  Cloud backups deleted: %d\n", result.CloudBackupsDeleted)
		fmt.Printf("  Local files deleted: %d\n", result.LocalFilesDeleted)
		return nil
	},
}

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair mirror database corruption",
	Long: `Repair mirror corruption by checkpointing WAL, removing SHM files,
checking integrity, and vacuuming.

Use this when you encounter database lock errors or corruption.
Run with --force to attempt recovery even if integrity checks fail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		fmt.Println("Repairing mirror database...")
		result, err := kv.Repair(charm.DBName, force)

		if result.WalCheckpointed {
			color.Green("  ✓ WAL checkpointed")
		}
		if result.ShmRemoved {
			color.Green("  ✓ SHM file removed")
		}
		if result.IntegrityOK {
			color.Green("  ✓ Integrity check passed")
		} else {
			color.Red("  ✗ Integrity check failed")
		}
		if result.Vacuumed {
			color.Green("  ✓ Database vacuumed")
		}

		if err != nil {
			if !force {
				color.Yellow("\nRun with --force to attempt recovery.")
			}
			return fmt.Errorf("repair failed: %w", err)
		}

		color.Green("\n✓ Repair complete")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset local mirror and restore from cloud",
	Long: `Delete the local mirror and restore it from Charm Cloud.

The SQLite database is untouched. Use this to fix mirror conflicts or
bring a device back to cloud state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("This will DELETE the local mirror and restore from cloud.")
		fmt.Print("Continue? [y/N]: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Canceled.")
			return nil
		}

		if err := kv.Reset(charm.DBName); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		color.Green("✓ Local mirror reset and restored from cloud")
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncRepairCmd)
	syncCmd.AddCommand(syncResetCmd)
	syncCmd.AddCommand(syncWipeCmd)

	syncRepairCmd.Flags().Bool("force", false, "Attempt recovery even if integrity checks fail")

	rootCmd.AddCommand(syncCmd)
}
