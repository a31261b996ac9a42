package firestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryDocValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     entryDoc
		wantErr bool
	}{
		{
			name: "complete document",
			doc:  entryDoc{Name: "Whey Gold", Company: "Optimum", Category: "WPI"},
		},
		{
			name:    "missing name decodes to zero value",
			doc:     entryDoc{Company: "Optimum", Category: "WPI"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReviewDocValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     reviewDoc
		wantErr bool
	}{
		{
			name: "complete document",
			doc:  reviewDoc{AuthorHandle: "gymrat", Text: "solid", Rating: 4},
		},
		{
			name:    "missing author",
			doc:     reviewDoc{Text: "solid", Rating: 4},
			wantErr: true,
		},
		{
			name:    "missing rating decodes to zero value",
			doc:     reviewDoc{AuthorHandle: "gymrat", Text: "solid"},
			wantErr: true,
		},
		{
			name:    "rating above range",
			doc:     reviewDoc{AuthorHandle: "gymrat", Text: "solid", Rating: 9},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
