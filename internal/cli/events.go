package cli

import (
	"encoding/json"
	"errors"

	"productapi/internal/models"
	"productapi/pkg/rabbitmq"

	"github.com/spf13/cobra"
)

func newEventsCmd(a *app) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print product events published on RabbitMQ as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.RabbitMQ.URL == "" {
				return errors.New("RABBITMQ_URL is required")
			}
			mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: a.cfg.RabbitMQ.URL, Exchange: a.cfg.RabbitMQ.Exchange}, a.log.Component("rabbitmq"))
			if err != nil {
				return err
			}
			defer mq.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			return mq.ConsumeProductEvents(cmd.Context(), pattern, func(e models.ProductEvent) error {
				return enc.Encode(e)
			})
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "product.*", "routing key pattern")
	return cmd
}
