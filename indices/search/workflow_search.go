package search

import (
	"encoding/json"

	"greenlight/account"
	"greenlight/client/es"
	"greenlight/domain"
	"greenlight/indices"
	"greenlight/session"

	"github.com/sirupsen/logrus"
)

var (
	SearchWorkflowsFunc = SearchWorkflows
)

func SearchWorkflows(q domain.WorkflowQuery, s *session.Context) ([]indices.WorkflowDocument, error) {
	filters := make([]es.H, 0, 4)
	if q.Title != "" {
		filters = append(filters, es.H{"match": es.H{"title": es.H{"query": q.Title, "operator": "AND"}}})
	}
	if q.Department != "" {
		filters = append(filters, es.H{"term": es.H{"department.keyword": q.Department}})
	}
	if q.Status != "" {
		filters = append(filters, es.H{"term": es.H{"status.keyword": q.Status}})
	}
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		filters = append(filters, es.H{"term": es.H{"initiatorId": s.Identity.ID}})
	}

	query := es.H{
		"query": es.H{"bool": es.H{"filter": filters}},
		"size":  10000,
		"sort":  []es.H{{"createTime": es.H{"order": "desc"}}},
	}

	result, err := es.SearchFunc(indices.WorkflowIndexName, query, s)
	if err != nil {
		return nil, err
	}

	docs := make([]indices.WorkflowDocument, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		doc := indices.WorkflowDocument{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			logrus.Warnf("search workflows: bad document %s: %v", hit.Id, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
