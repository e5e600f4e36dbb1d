package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pkgconfig "NexusPlatform/pkg/config"
	pkgerrors "NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/pkg/metrics"
	"NexusPlatform/services/console/internal/config"
	"NexusPlatform/services/console/internal/output"
	"NexusPlatform/services/console/internal/transport"
)

// Version версия консоли
const Version = "1.0.0"

// cli общее состояние одного запуска команды
type cli struct {
	ctx     context.Context
	base    *pkgconfig.Config
	log     logger.Logger
	metrics *metrics.Metrics
	viper   *viper.Viper

	// заполняются в PersistentPreRunE
	cfg       *config.Config
	svc       *pkgconfig.Config
	formatter output.Formatter
	format    output.FormatType

	app *app
}

// Execute запускает корневую команду с аргументами процесса
func Execute(ctx context.Context, pkgConfig *pkgconfig.Config, log logger.Logger, m *metrics.Metrics) error {
	return NewRootCmd(ctx, pkgConfig, log, m).ExecuteContext(ctx)
}

// NewRootCmd строит дерево команд. Каждый вызов создает свежие флаги и свой viper.
func NewRootCmd(ctx context.Context, pkgConfig *pkgconfig.Config, log logger.Logger, m *metrics.Metrics) *cobra.Command {
	if log == nil {
		log = logger.NewNop()
	}
	c := &cli{
		ctx:     ctx,
		base:    pkgConfig,
		log:     log,
		metrics: m,
		viper:   viper.New(),
	}

	rootCmd := &cobra.Command{
		Use:   "nexus",
		Short: "NEXUS - консоль администрирования казино",
		Long: `NEXUS - клиент командной строки для платформы управления казино.

Поддерживает вход и лицензионное соглашение, каталог ролей, уведомления
со счетчиком непрочитанных, динамические маршруты меню и их проверку.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.initConfig(cmd); err != nil {
				return err
			}
			return c.setupLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "файл конфигурации (по умолчанию $HOME/.nexus/config.yaml)")
	flags.StringP("server", "s", "", "базовый URL API (например http://localhost:8000/api/)")
	flags.StringP("output", "o", "", "формат вывода (table, json, yaml)")
	flags.Bool("debug", false, "режим отладки")

	c.viper.BindPFlag("config", flags.Lookup("config"))
	c.viper.BindPFlag(config.KeyBaseURL, flags.Lookup("server"))
	c.viper.BindPFlag(config.KeyOutputFormat, flags.Lookup("output"))
	c.viper.BindPFlag("debug", flags.Lookup("debug"))

	c.viper.BindEnv("config", "NEXUS_CONFIG")
	c.viper.BindEnv(config.KeyBaseURL, "NEXUS_API_URL")
	c.viper.BindEnv(config.KeyTimeout, "NEXUS_API_TIMEOUT")
	c.viper.BindEnv(config.KeyStorage, "NEXUS_STORAGE_BACKEND")
	c.viper.BindEnv(config.KeyPollInterval, "NEXUS_POLL_INTERVAL")
	c.viper.BindEnv(config.KeyOutputFormat, "NEXUS_FORMAT")
	c.viper.BindEnv(config.KeyOutputColors, "NEXUS_COLORS")
	c.viper.BindEnv("debug", "NEXUS_DEBUG")

	rootCmd.AddCommand(c.newAuthCmd())
	rootCmd.AddCommand(c.newRolesCmd())
	rootCmd.AddCommand(c.newNotificationsCmd())
	rootCmd.AddCommand(c.newRoutesCmd())
	rootCmd.AddCommand(c.newMenuCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newHealthCmd())

	return rootCmd
}

// configPath путь к файлу конфигурации консоли
func (c *cli) configPath() (string, error) {
	if path := c.viper.GetString("config"); path != "" {
		return path, nil
	}
	return config.GetConfigPath()
}

// initConfig собирает конфигурацию: файл консоли, затем переменные окружения,
// затем флаги. Результат переносится поверх сервисной конфигурации.
func (c *cli) initConfig(cmd *cobra.Command) error {
	path, err := c.configPath()
	if err != nil {
		return err
	}

	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		c.viper.SetConfigFile(path)
		c.viper.SetConfigType("yaml")
		if err := c.viper.ReadInConfig(); err != nil {
			return handleError(fmt.Errorf("error al leer la configuración: %w", err), cmd, c.log)
		}
		c.log.Debug("using config file", logger.String("path", c.viper.ConfigFileUsed()))
	}

	merged := *fileCfg
	if c.viper.IsSet(config.KeyBaseURL) {
		merged.API.BaseURL = c.viper.GetString(config.KeyBaseURL)
	}
	if c.viper.IsSet(config.KeyTimeout) {
		merged.API.Timeout = c.viper.GetString(config.KeyTimeout)
	}
	if c.viper.IsSet(config.KeyStorage) {
		merged.Storage.Backend = c.viper.GetString(config.KeyStorage)
	}
	if c.viper.IsSet(config.KeyPollInterval) {
		merged.Notifications.PollInterval = c.viper.GetString(config.KeyPollInterval)
	}
	if c.viper.IsSet(config.KeyOutputFormat) {
		merged.Output.Format = strings.ToLower(c.viper.GetString(config.KeyOutputFormat))
	}
	if c.viper.IsSet(config.KeyOutputColors) {
		merged.Output.Colors = c.viper.GetBool(config.KeyOutputColors)
	}
	if merged.Output.Format == "" {
		merged.Output.Format = string(output.DetectFormat())
	}
	if err := merged.Validate(); err != nil {
		return handleError(pkgerrors.Wrap(err, pkgerrors.ErrValidation, err.Error()), cmd, c.log)
	}
	c.cfg = &merged

	svc := pkgconfig.Default()
	if c.base != nil {
		copied := *c.base
		svc = &copied
	}
	merged.Apply(svc)
	c.svc = svc

	c.format, _ = output.ParseFormat(merged.Output.Format)
	colors := merged.Output.Colors && output.DetectColors()
	c.formatter = output.GetFormatter(c.format, true, colors)
	return nil
}

// setupLogging включает отладочный уровень по --debug
func (c *cli) setupLogging() error {
	if !c.viper.GetBool("debug") {
		return nil
	}
	env := "dev"
	if c.svc != nil {
		env = c.svc.Environment
	}
	debugLogger, err := logger.NewLoggerTo(os.Stderr, env, "debug", "nexus-console")
	if err != nil {
		return err
	}
	c.log = debugLogger
	c.log.Debug("debug mode enabled")
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// render выводит результат операции. Для json/yaml печатается конверт
// {success, data|error}, для таблицы сами данные или сообщение об ошибке.
func render[T any](c *cli, cmd *cobra.Command, v T, err error) error {
	env := transport.Result(v, err)

	if c.format == output.FormatJSON || c.format == output.FormatYAML {
		if werr := output.Write(cmd.OutOrStdout(), c.formatter, env); werr != nil {
			return werr
		}
		return handleError(err, cmd, c.log)
	}

	if err != nil {
		return handleError(err, cmd, c.log)
	}
	return output.Write(cmd.OutOrStdout(), c.formatter, v)
}

// handleError приводит ошибку к сообщению для пользователя
func handleError(err error, cmd *cobra.Command, log logger.Logger) error {
	if err == nil {
		return nil
	}

	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) {
		log.Debug("command failed", logger.String("command", cmd.CommandPath()), logger.Error(err))
		return fmt.Errorf("%s: %v", cmd.Name(), err)
	}

	log.Debug("command failed",
		logger.String("command", cmd.CommandPath()),
		logger.String("code", string(appErr.Code)),
		logger.Error(err))

	msg := appErr.GetUserMessage()
	if len(appErr.Fields) > 1 {
		first := appErr.FirstField()
		var rest []string
		for field, messages := range appErr.Fields {
			if field != first {
				rest = append(rest, fmt.Sprintf("%s: %s", field, strings.Join(messages, " ")))
			}
		}
		sort.Strings(rest)
		msg += "; " + strings.Join(rest, "; ")
	}

	return fmt.Errorf("%s: %s", cmd.Name(), msg)
}
