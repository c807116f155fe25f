package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/user/reelverse/internal/config"
	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/seed"
	"gorm.io/gorm"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "reelverse-admin",
	Short: "Reelverse 运维命令行",
	Long:  "数据库迁移、演示数据生成与用户角色管理。",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()
		return logger.Init(cfg.LogLevel, cfg.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := repository.Migrate(db); err != nil {
			return err
		}
		fmt.Println("迁移完成")
		return nil
	},
}

var (
	seedUsers    int
	seedMovies   int
	seedEpisodes int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "生成演示数据",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := repository.Migrate(db); err != nil {
			return err
		}

		s := seed.NewSeeder(db)
		users, err := s.SeedUsers(seedUsers)
		if err != nil {
			return err
		}
		movies, err := s.SeedMovies(seedMovies, seedEpisodes)
		if err != nil {
			return err
		}
		ratings, err := s.SeedRatings(users, movies)
		if err != nil {
			return err
		}
		fmt.Printf("已生成 %d 个用户、%d 部影片、%d 条评分，密码均为 %s\n", len(users), len(movies), ratings, seed.DefaultPassword)
		return nil
	},
}

var promoteRole string

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "为用户追加角色",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		users := repository.NewUserRepository(db)

		email := strings.ToLower(strings.TrimSpace(args[0]))
		user, err := users.FindByEmail(email)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("用户 %s 不存在", email)
		}
		if user.HasRole(promoteRole) {
			fmt.Printf("%s 已拥有角色 %s\n", email, promoteRole)
			return nil
		}

		names := append(user.RoleNames(), promoteRole)
		roles, err := users.FindRoles(names)
		if err != nil {
			return err
		}
		if len(roles) != len(names) {
			return fmt.Errorf("未知角色 %s", promoteRole)
		}
		if err := users.ReplaceRoles(user, roles); err != nil {
			return err
		}
		fmt.Printf("%s 的角色: %s\n", email, strings.Join(names, ", "))
		return nil
	},
}

func openDB() (*gorm.DB, error) {
	return repository.InitDB(cfg.DatabaseURL, false)
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 20, "生成的用户数")
	seedCmd.Flags().IntVar(&seedMovies, "movies", 30, "生成的影片数")
	seedCmd.Flags().IntVar(&seedEpisodes, "episodes", 8, "每部剧集的分集数，0 表示只生成电影")
	promoteCmd.Flags().StringVar(&promoteRole, "role", model.RoleAdmin, "追加的角色: moderator 或 admin")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(promoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
