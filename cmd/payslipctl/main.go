package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"payslip-system/internal/employee"
	"payslip-system/internal/ingestion"
	"payslip-system/internal/mapping"
	"payslip-system/internal/payslip"
	"payslip-system/internal/shared/apperror"
	"payslip-system/internal/shared/connection"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	companyID    string
	kind         string
	filePath     string
	olderThan    time.Duration
	employeeCode string
	userID       string
)

var rootCmd = &cobra.Command{
	Use:          "payslipctl",
	Short:        "Operational tasks for the payslip system",
	SilenceUsage: true,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Attach newly registered user accounts to unowned payslips",
	RunE: func(cmd *cobra.Command, args []string) error {
		gormDB, err := connectDB()
		if err != nil {
			return err
		}

		payslipRepo := payslip.NewRepository(gormDB)
		employeeRepo := employee.NewRepository(gormDB)
		service := payslip.NewService(payslipRepo, employeeRepo, zap.L())

		resp, err := service.BackfillUsers(cmd.Context(), companyID)
		if err != nil {
			return err
		}

		fmt.Printf("scanned %d unowned payslips, fixed %d\n", resp.Scanned, resp.Fixed)
		return nil
	},
}

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Header mapping management",
}

var mappingImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Build and save a header mapping from a pasted payroll export",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		gormDB, err := connectDB()
		if err != nil {
			return err
		}

		service := mapping.NewService(mapping.NewRepository(gormDB))
		resp, err := service.Import(cmd.Context(), companyID, "payslipctl", mapping.ImportMappingRequest{
			Kind: kind,
			Text: string(raw),
		})
		if err != nil {
			return err
		}

		return printJSON(resp)
	},
}

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Employee directory management",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List directory records for a company",
	RunE: func(cmd *cobra.Command, args []string) error {
		gormDB, err := connectDB()
		if err != nil {
			return err
		}

		emps, err := employee.NewRepository(gormDB).FindAllByCompany(cmd.Context(), companyID)
		if err != nil {
			return err
		}

		if len(emps) == 0 {
			fmt.Println("no employees")
			return nil
		}
		return printJSON(emps)
	},
}

var employeesLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Attach a user account to a directory record",
	RunE: func(cmd *cobra.Command, args []string) error {
		gormDB, err := connectDB()
		if err != nil {
			return err
		}

		repo := employee.NewRepository(gormDB)
		if _, err := repo.FindByCompanyAndCode(cmd.Context(), companyID, employeeCode); err != nil {
			return err
		}
		if err := repo.SetUserID(cmd.Context(), companyID, employeeCode, userID); err != nil {
			return err
		}

		fmt.Printf("linked employee %s to user %s; run backfill to repair existing payslips\n", employeeCode, userID)
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Ingestion job management",
}

var jobsStaleCmd = &cobra.Command{
	Use:   "stale",
	Short: "List ingestion jobs stuck in processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		gormDB, err := connectDB()
		if err != nil {
			return err
		}

		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}

		repo := ingestion.NewRepository(gormDB, sqlDB)
		jobs, err := repo.ListStaleProcessing(cmd.Context(), olderThan)
		if err != nil {
			return err
		}

		if len(jobs) == 0 {
			fmt.Println("no stale jobs")
			return nil
		}
		return printJSON(jobs)
	},
}

func connectDB() (*gorm.DB, error) {
	return connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		3,
	)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	backfillCmd.Flags().StringVar(&companyID, "company", "", "company id")
	backfillCmd.MarkFlagRequired("company")

	mappingImportCmd.Flags().StringVar(&companyID, "company", "", "company id")
	mappingImportCmd.Flags().StringVar(&kind, "kind", mapping.KindRegular, "payslip kind (regular or bonus)")
	mappingImportCmd.Flags().StringVar(&filePath, "file", "", "path to the exported header file")
	mappingImportCmd.MarkFlagRequired("company")
	mappingImportCmd.MarkFlagRequired("file")

	jobsStaleCmd.Flags().DurationVar(&olderThan, "older-than", 30*time.Minute, "processing age threshold")

	employeesListCmd.Flags().StringVar(&companyID, "company", "", "company id")
	employeesListCmd.MarkFlagRequired("company")

	employeesLinkCmd.Flags().StringVar(&companyID, "company", "", "company id")
	employeesLinkCmd.Flags().StringVar(&employeeCode, "code", "", "employee code")
	employeesLinkCmd.Flags().StringVar(&userID, "user", "", "user account id")
	employeesLinkCmd.MarkFlagRequired("company")
	employeesLinkCmd.MarkFlagRequired("code")
	employeesLinkCmd.MarkFlagRequired("user")

	mappingCmd.AddCommand(mappingImportCmd)
	jobsCmd.AddCommand(jobsStaleCmd)
	employeesCmd.AddCommand(employeesListCmd, employeesLinkCmd)
	rootCmd.AddCommand(backfillCmd, mappingCmd, jobsCmd, employeesCmd)
}

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
