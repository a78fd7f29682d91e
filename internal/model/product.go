package model

import "time"

// Product status values.  A listing starts as StatusSelling and may
// move to StatusSold exactly once; there is no reverse transition
// and no other state.
const (
    StatusSelling = "selling" // products.status initial state
    StatusSold    = "sold"    // products.status terminal state
)

// Condition grades accepted for a listing.  The values mirror the
// campus platform's fixed vocabulary and are stored verbatim.
const (
    ConditionNew      = "全新"   // brand new
    ConditionNinety   = "九成新" // barely used
    ConditionEighty   = "八成新" // visibly used
    ConditionFlawed   = "轻微瑕疵" // minor defects
)

// ValidCondition reports whether the given grade is one of the four
// accepted condition values.
func ValidCondition(cond string) bool {
    switch cond {
    case ConditionNew, ConditionNinety, ConditionEighty, ConditionFlawed:
        return true
    }
    return false
}

// Product mirrors the `products` table.  The image payload lives in
// the same row (LONGBLOB) but is only ever selected by the dedicated
// image lookup; listing and detail queries exclude it.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user who published the listing; immutable after creation.
//  Title       – listing title.
//  Description – free-form description.
//  PriceCents  – asking price in cents; non-negative.
//  Category    – free-form category label used for filtering.
//  Campus      – campus where the item is handed over.
//  Condition   – one of the Condition* grades (column `cond`).
//  Status      – StatusSelling or StatusSold.
//  ViewCount   – monotonic view counter, incremented in SQL.
//  ImageType   – MIME type of the stored image (empty when absent).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Product struct {
    ID          uint64    // products.id
    OwnerID     uint64    // products.owner_id
    Title       string    // products.title
    Description string    // products.description
    PriceCents  uint32    // products.price_cents
    Category    string    // products.category
    Campus      string    // products.campus
    Condition   string    // products.cond
    Status      string    // products.status
    ViewCount   uint64    // products.view_count
    ImageType   string    // products.image_type
    CreatedAt   time.Time // products.created_at
    UpdatedAt   time.Time // products.updated_at
}

// Comment is one append-only entry of a product's comment thread.
// Nickname is a snapshot of the author's display name at write time;
// a later nickname change does not alter old comments.
type Comment struct {
    ID        uint64    // product_comments.id
    ProductID uint64    // product_comments.product_id
    UserID    uint64    // product_comments.user_id
    Nickname  string    // product_comments.nickname (snapshot)
    Content   string    // product_comments.content
    CreatedAt time.Time // product_comments.created_at
}

// Evaluation kinds a buyer may assign to a seller after a sale.
const (
    EvalGood    = "good"
    EvalNeutral = "neutral"
    EvalBad     = "bad"
)

// ValidEvaluation reports whether kind names one of the three
// reputation buckets.
func ValidEvaluation(kind string) bool {
    return kind == EvalGood || kind == EvalNeutral || kind == EvalBad
}
