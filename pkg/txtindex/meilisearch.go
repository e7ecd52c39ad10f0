package txtindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/meilisearch/meilisearch-go"

	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/schema"
)

// MeilisearchConfig locates the Meilisearch server.
type MeilisearchConfig struct {
	Host   string
	APIKey string

	// IndexPrefix is prepended to the base name to form the index uid.
	IndexPrefix string
}

// Validate checks the configuration.
func (c *MeilisearchConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("meilisearch host required: %w", lberr.ErrInvalidArgument)
	}
	return nil
}

// MeilisearchProvisioner configures one Meilisearch index per base: fields
// with a Textual index become searchable attributes and fields with an
// Ordenado index become sortable attributes. Nested fields are named by
// their dotted path.
type MeilisearchProvisioner struct {
	client meilisearch.ServiceManager
	prefix string
	logger hclog.Logger
}

var _ Provisioner = (*MeilisearchProvisioner)(nil)

// NewMeilisearchProvisioner returns a provisioner for cfg.
func NewMeilisearchProvisioner(cfg *MeilisearchConfig, logger hclog.Logger) (*MeilisearchProvisioner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil meilisearch config: %w", lberr.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &MeilisearchProvisioner{
		client: meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey)),
		prefix: cfg.IndexPrefix,
		logger: logger,
	}, nil
}

// Name returns the provisioner name.
func (p *MeilisearchProvisioner) Name() string {
	return "meilisearch"
}

// IndexUID returns the index uid used for base.
func (p *MeilisearchProvisioner) IndexUID(base *schema.Base) string {
	return p.prefix + base.Name()
}

// Provision pushes the searchable and sortable attributes of base. The
// settings tasks are enqueued, not awaited.
func (p *MeilisearchProvisioner) Provision(ctx context.Context, base *schema.Base) error {
	if base == nil {
		return fmt.Errorf("nil base: %w", lberr.ErrInvalidArgument)
	}

	searchable, sortable := Attributes(base)
	index := p.client.Index(p.IndexUID(base))

	task, err := index.UpdateSearchableAttributesWithContext(ctx, &searchable)
	if err != nil {
		return fmt.Errorf("error updating searchable attributes of %q: %w", p.IndexUID(base), err)
	}
	p.logger.Debug("enqueued searchable attributes",
		"index", p.IndexUID(base),
		"task_uid", task.TaskUID,
		"attributes", searchable,
	)

	task, err = index.UpdateSortableAttributesWithContext(ctx, &sortable)
	if err != nil {
		return fmt.Errorf("error updating sortable attributes of %q: %w", p.IndexUID(base), err)
	}
	p.logger.Debug("enqueued sortable attributes",
		"index", p.IndexUID(base),
		"task_uid", task.TaskUID,
		"attributes", sortable,
	)

	return nil
}

// Attributes splits the fields of base into searchable and sortable
// attribute names. Binary fields are searchable through their extracted text
// but never sortable.
func Attributes(base *schema.Base) (searchable, sortable []string) {
	searchable = []string{}
	sortable = []string{}

	for _, fp := range base.Fields() {
		name := strings.Join(fp.Path, ".")
		if schema.HasIndex(fp.Field.Indices, schema.Textual) {
			searchable = append(searchable, name)
		}
		if schema.HasIndex(fp.Field.Indices, schema.Ordenado) && !fp.Field.Datatype.Binary() {
			sortable = append(sortable, name)
		}
	}
	return searchable, sortable
}
