// Command mpcectl is a CLI front-end for the MPCE/FSAE engines: validate a
// configuration file, or run a single calculate call against it and print
// the JSON result.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/areumfire/mpce-go/internal/config"
	"github.com/areumfire/mpce-go/internal/engine"
	"github.com/areumfire/mpce-go/internal/fsae"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "mpcectl",
		Short: "Validate and drive the MPCE/FSAE cost engines from the command line",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to an MPCE configuration JSON file")

	root.AddCommand(validateCmd(), calculateMPCECmd(), calculateFSAECmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate an MPCE configuration file (C1)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrFail()
			if err != nil {
				return err
			}
			if err := engine.Validate(cfg); err != nil {
				return err
			}
			fmt.Println("configuration is valid")
			return nil
		},
	}
}

func calculateMPCECmd() *cobra.Command {
	var regionID, statusID, primaryJSON, spouseJSON, childrenJSON string
	cmd := &cobra.Command{
		Use:   "calculate-mpce",
		Short: "Run C6 against a configuration and print per-plan results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrFail()
			if err != nil {
				return err
			}
			if err := engine.Validate(cfg); err != nil {
				return err
			}

			primary, err := parseMember(primaryJSON)
			if err != nil {
				return fmt.Errorf("--primary: %w", err)
			}
			input := engine.CalculateInput{
				Config:   cfg,
				RegionID: engine.RegionID(regionID),
				StatusID: engine.StatusID(statusID),
				Primary:  primary,
			}
			if spouseJSON != "" {
				spouse, err := parseMember(spouseJSON)
				if err != nil {
					return fmt.Errorf("--spouse: %w", err)
				}
				input.Spouse = spouse
			}
			if childrenJSON != "" {
				var raw []map[string]int
				if err := json.Unmarshal([]byte(childrenJSON), &raw); err != nil {
					return fmt.Errorf("--children: %w", err)
				}
				for _, c := range raw {
					input.Children = append(input.Children, *toMember(c))
				}
			}

			result, err := engine.Calculate(input)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&regionID, "region", "", "region id")
	cmd.Flags().StringVar(&statusID, "status", "", "status id")
	cmd.Flags().StringVar(&primaryJSON, "primary", "{}", "primary member services, as a JSON object of serviceId to count")
	cmd.Flags().StringVar(&spouseJSON, "spouse", "", "spouse member services JSON, omit if no spouse")
	cmd.Flags().StringVar(&childrenJSON, "children", "", "children member services, as a JSON array of objects")
	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func calculateFSAECmd() *cobra.Command {
	var scheduleFile, accountType, filingStatus string
	var dependents int
	var primaryIncome, spouseIncome, rollover, cost float64
	cmd := &cobra.Command{
		Use:   "calculate-fsae",
		Short: "Run C7 against a tax schedule and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			var schedule *fsae.TaxSchedule
			var err error
			if scheduleFile != "" {
				schedule, err = config.LoadFSAESchedule(scheduleFile)
			} else {
				schedule, err = config.DefaultFSAESchedule()
			}
			if err != nil {
				return err
			}

			result, err := fsae.Calculate(fsae.Input{
				Schedule:           *schedule,
				AccountTypeID:      fsae.AccountTypeID(accountType),
				FilingStatusID:     fsae.FilingStatusID(filingStatus),
				NumberOfDependents: dependents,
				PrimaryIncome:      primaryIncome,
				SpouseIncome:       spouseIncome,
				RolloverAmount:     rollover,
				Costs:              []float64{cost},
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&scheduleFile, "schedule", "", "path to an FSAE tax schedule JSON file (default: embedded 2017 schedule)")
	cmd.Flags().StringVar(&accountType, "account-type", "", "account type id, empty for default")
	cmd.Flags().StringVar(&filingStatus, "filing-status", "", "filing status id, empty for single")
	cmd.Flags().IntVar(&dependents, "dependents", 0, "number of dependents")
	cmd.Flags().Float64Var(&primaryIncome, "primary-income", 0, "primary annual income")
	cmd.Flags().Float64Var(&spouseIncome, "spouse-income", 0, "spouse annual income")
	cmd.Flags().Float64Var(&rollover, "rollover", 0, "prior-year rollover amount")
	cmd.Flags().Float64Var(&cost, "cost", 0, "target annual cost")
	return cmd
}

func loadConfigOrFail() (*engine.Config, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("--config is required")
	}
	viper.SetConfigFile(cfgFile)
	return config.LoadMPCEConfig(cfgFile)
}

func parseMember(raw string) (*engine.HouseholdMember, error) {
	var services map[string]int
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return nil, err
	}
	return toMember(services), nil
}

func toMember(services map[string]int) *engine.HouseholdMember {
	m := &engine.HouseholdMember{Services: map[engine.ServiceID]int{}}
	for svcID, count := range services {
		m.Services[engine.ServiceID(svcID)] = count
	}
	return m
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
